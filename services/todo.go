package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"Taskly/models"
	"Taskly/repository"
	"Taskly/result"

	"github.com/google/uuid"
)

// TodoLists is the list view payload: open items and completed items.
type TodoLists struct {
	NotDone []models.TodoItem
	Done    []models.TodoItem
}

func (l TodoLists) Empty() bool {
	return len(l.NotDone) == 0 && len(l.Done) == 0
}

type TodoService struct {
	todos repository.TodoRepository
	newID func() string
}

func NewTodoService(todos repository.TodoRepository) *TodoService {
	return &TodoService{
		todos: todos,
		newID: uuid.NewString,
	}
}

// ListForUser returns both buckets within the user's owner scope.
func (s *TodoService) ListForUser(ctx context.Context, user *models.User) result.Result[TodoLists] {
	scope := models.ScopeFor(user)

	notDone, err := s.todos.ListNotDone(ctx, scope)
	if err != nil {
		return result.Failure[TodoLists](result.StoreError, "Failed to fetch todo items not done", err)
	}

	done, err := s.todos.ListDone(ctx, scope)
	if err != nil {
		return result.Failure[TodoLists](result.StoreError, "Failed to fetch done todo items", err)
	}

	lists := TodoLists{NotDone: notDone, Done: done}
	if lists.NotDone == nil {
		lists.NotDone = []models.TodoItem{}
	}
	if lists.Done == nil {
		lists.Done = []models.TodoItem{}
	}

	slog.Debug("Fetched todo items", "user", user.ID, "not_done", len(lists.NotDone), "done", len(lists.Done))

	if lists.Empty() {
		return result.Success("no items found", lists)
	}
	return result.Success("items found", lists)
}

func (s *TodoService) AddItem(ctx context.Context, name string, dueDate *time.Time, owner *models.User) result.Result[models.TodoItem] {
	name = strings.TrimSpace(name)
	if name == "" {
		return result.Failure[models.TodoItem](result.ValidationError, "Item name is required", nil)
	}

	item := models.TodoItem{
		ID:        s.newID(),
		Name:      name,
		DueDate:   dueDate,
		CreatedBy: owner.ID,
	}
	if err := s.todos.Insert(ctx, &item); err != nil {
		return result.Failure[models.TodoItem](result.StoreError, "Failed to add item", err)
	}

	slog.Debug("Registered todo item", "item_id", item.ID, "user", owner.ID)
	return result.Success("Item added successfully", item)
}

func (s *TodoService) GetItem(ctx context.Context, user *models.User, id string) result.Result[models.TodoItem] {
	item, err := s.todos.FindByID(ctx, models.ScopeFor(user), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result.Failure[models.TodoItem](result.NotFound, "Item not found", err)
		}
		return result.Failure[models.TodoItem](result.StoreError, "Failed to fetch item for modification", err)
	}
	return result.Success("Item found", *item)
}

// ToggleItem flips the done flag; applying it twice restores the original state.
func (s *TodoService) ToggleItem(ctx context.Context, user *models.User, id string) result.Result[struct{}] {
	if err := s.todos.ToggleDone(ctx, models.ScopeFor(user), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result.Failure[struct{}](result.NotFound, "Item not found", err)
		}
		return result.Failure[struct{}](result.StoreError, "Failed to change item status", err)
	}

	slog.Debug("Changed todo item status", "item_id", id, "user", user.ID)
	return result.Success("Changed item status successfully", struct{}{})
}

// RenameItem looks the item up first and only issues the update when it exists.
func (s *TodoService) RenameItem(ctx context.Context, user *models.User, id, name string) result.Result[struct{}] {
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return result.Failure[struct{}](result.ValidationError, "Item ID and name are required", nil)
	}

	scope := models.ScopeFor(user)
	if _, err := s.todos.FindByID(ctx, scope, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result.Failure[struct{}](result.NotFound, "Item not found", err)
		}
		return result.Failure[struct{}](result.StoreError, "Failed to modify item", err)
	}

	if err := s.todos.RenameByID(ctx, scope, id, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result.Failure[struct{}](result.NotFound, "Item not found", err)
		}
		return result.Failure[struct{}](result.StoreError, "Failed to modify item", err)
	}

	slog.Debug("Renamed todo item", "item_id", id, "user", user.ID)
	return result.Success("Item modified successfully", struct{}{})
}

// DeleteItem is idempotent: removing an absent item succeeds.
func (s *TodoService) DeleteItem(ctx context.Context, user *models.User, id string) result.Result[struct{}] {
	if err := s.todos.Remove(ctx, models.ScopeFor(user), id); err != nil {
		return result.Failure[struct{}](result.StoreError, "Failed to remove item", err)
	}

	slog.Debug("Removed todo item", "item_id", id, "user", user.ID)
	return result.Success("Removed item successfully", struct{}{})
}
