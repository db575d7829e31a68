package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Taskly/database"
	"Taskly/models"
)

type PostgresUserRepository struct {
	db database.DBTX
}

func NewPostgresUserRepository(db database.DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, hashed_password, is_admin, created_at FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.HashedPassword, &user.IsAdmin, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// InsertUser creates the account. A taken username yields ErrConflict and
// leaves the stored row untouched.
func (r *PostgresUserRepository) InsertUser(ctx context.Context, username, hashedPassword string, isAdmin bool) (*models.User, error) {
	query :=
		`INSERT INTO users (id, hashed_password, is_admin)
		 VALUES ($1, $2, $3)
		 RETURNING id, hashed_password, is_admin, created_at
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username, hashedPassword, isAdmin).
		Scan(&user.ID, &user.HashedPassword, &user.IsAdmin, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", username, ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
