// Package repository is the persistence gateway for users and to-do items.
// Every call is a single parameterized statement; callers get domain models
// back or one of the sentinel errors below wrapped around the driver error.
package repository

import (
	"context"
	"errors"
	"time"

	"Taskly/models"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

const uniqueViolation = "23505"

type TodoRepository interface {
	ListNotDone(ctx context.Context, scope models.Scope) ([]models.TodoItem, error)
	ListDone(ctx context.Context, scope models.Scope) ([]models.TodoItem, error)
	FindByID(ctx context.Context, scope models.Scope, id string) (*models.TodoItem, error)
	Insert(ctx context.Context, item *models.TodoItem) error
	Remove(ctx context.Context, scope models.Scope, id string) error
	ToggleDone(ctx context.Context, scope models.Scope, id string) error
	RenameByID(ctx context.Context, scope models.Scope, id, name string) error
}

type UserRepository interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	InsertUser(ctx context.Context, username, hashedPassword string, isAdmin bool) (*models.User, error)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func timePtr(t time.Time, valid bool) *time.Time {
	if !valid {
		return nil
	}
	return &t
}

var (
	_ TodoRepository = (*PostgresTodoRepository)(nil)
	_ UserRepository = (*PostgresUserRepository)(nil)
)
