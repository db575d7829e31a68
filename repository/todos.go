package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Taskly/database"
	"Taskly/models"
)

type PostgresTodoRepository struct {
	db database.DBTX
}

func NewPostgresTodoRepository(db database.DBTX) *PostgresTodoRepository {
	return &PostgresTodoRepository{db: db}
}

func (r *PostgresTodoRepository) ListNotDone(ctx context.Context, scope models.Scope) ([]models.TodoItem, error) {
	return r.list(ctx, scope, false)
}

func (r *PostgresTodoRepository) ListDone(ctx context.Context, scope models.Scope) ([]models.TodoItem, error) {
	return r.list(ctx, scope, true)
}

func (r *PostgresTodoRepository) list(ctx context.Context, scope models.Scope, done bool) ([]models.TodoItem, error) {
	query :=
		`SELECT id, name, done, due_date, created_by FROM todo_items
		 WHERE done = $1 AND ($2 OR created_by = $3)
		 ORDER BY due_date ASC NULLS LAST, name ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, done, scope.All, scope.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := []models.TodoItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresTodoRepository) FindByID(ctx context.Context, scope models.Scope, id string) (*models.TodoItem, error) {
	query :=
		`SELECT id, name, done, due_date, created_by FROM todo_items
		 WHERE id = $1 AND ($2 OR created_by = $3)
		 `

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, scope.All, scope.OwnerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresTodoRepository) Insert(ctx context.Context, item *models.TodoItem) error {
	query :=
		`INSERT INTO todo_items (id, name, done, due_date, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query, item.ID, item.Name, item.Done, item.DueDate, item.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("todo item %s: %w", item.ID, ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// Remove deletes the item if it exists in scope. Deleting nothing is not an error.
func (r *PostgresTodoRepository) Remove(ctx context.Context, scope models.Scope, id string) error {
	query :=
		`DELETE FROM todo_items
		 WHERE id = $1 AND ($2 OR created_by = $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, id, scope.All, scope.OwnerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresTodoRepository) ToggleDone(ctx context.Context, scope models.Scope, id string) error {
	query :=
		`UPDATE todo_items SET done = NOT done
		 WHERE id = $1 AND ($2 OR created_by = $3)
		 `

	res, err := r.db.ExecContext(ctx, query, id, scope.All, scope.OwnerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(res)
}

func (r *PostgresTodoRepository) RenameByID(ctx context.Context, scope models.Scope, id, name string) error {
	query :=
		`UPDATE todo_items SET name = $4
		 WHERE id = $1 AND ($2 OR created_by = $3)
		 `

	res, err := r.db.ExecContext(ctx, query, id, scope.All, scope.OwnerID, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return expectAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.TodoItem, error) {
	var (
		item models.TodoItem
		due  sql.NullTime
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Done, &due, &item.CreatedBy); err != nil {
		return nil, err
	}
	item.DueDate = timePtr(due.Time, due.Valid)
	return &item, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
