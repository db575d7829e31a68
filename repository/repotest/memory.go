// Package repotest provides in-memory repositories for tests of the layers
// above the persistence gateway. They honour the same contracts as the
// PostgreSQL implementations: owner scope, ordering and sentinel errors.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"Taskly/models"
	"Taskly/repository"
)

// Todos is an in-memory repository.TodoRepository.
type Todos struct {
	mu    sync.Mutex
	items map[string]models.TodoItem
	calls []string

	// Errs forces the named method ("ListDone", "Insert", ...) to fail.
	Errs map[string]error
}

func NewTodos(items ...models.TodoItem) *Todos {
	t := &Todos{items: map[string]models.TodoItem{}, Errs: map[string]error{}}
	for _, it := range items {
		t.items[it.ID] = it
	}
	return t
}

// Calls lists the methods invoked so far, in order.
func (t *Todos) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.calls...)
}

// Get returns the stored item regardless of scope.
func (t *Todos) Get(id string) (models.TodoItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	it, ok := t.items[id]
	return it, ok
}

func (t *Todos) enter(method string) error {
	t.calls = append(t.calls, method)
	return t.Errs[method]
}

func inScope(scope models.Scope, it models.TodoItem) bool {
	return scope.All || it.CreatedBy == scope.OwnerID
}

func (t *Todos) list(scope models.Scope, done bool) []models.TodoItem {
	out := []models.TodoItem{}
	for _, it := range t.items {
		if it.Done == done && inScope(scope, it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a == nil && b == nil:
			return out[i].Name < out[j].Name
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return out[i].Name < out[j].Name
		default:
			return a.Before(*b)
		}
	})
	return out
}

func (t *Todos) ListNotDone(_ context.Context, scope models.Scope) ([]models.TodoItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("ListNotDone"); err != nil {
		return nil, err
	}
	return t.list(scope, false), nil
}

func (t *Todos) ListDone(_ context.Context, scope models.Scope) ([]models.TodoItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("ListDone"); err != nil {
		return nil, err
	}
	return t.list(scope, true), nil
}

func (t *Todos) FindByID(_ context.Context, scope models.Scope, id string) (*models.TodoItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("FindByID"); err != nil {
		return nil, err
	}
	it, ok := t.items[id]
	if !ok || !inScope(scope, it) {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (t *Todos) Insert(_ context.Context, item *models.TodoItem) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("Insert"); err != nil {
		return err
	}
	if _, ok := t.items[item.ID]; ok {
		return fmt.Errorf("todo item %s: %w", item.ID, repository.ErrConflict)
	}
	t.items[item.ID] = *item
	return nil
}

func (t *Todos) Remove(_ context.Context, scope models.Scope, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("Remove"); err != nil {
		return err
	}
	if it, ok := t.items[id]; ok && inScope(scope, it) {
		delete(t.items, id)
	}
	return nil
}

func (t *Todos) ToggleDone(_ context.Context, scope models.Scope, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("ToggleDone"); err != nil {
		return err
	}
	it, ok := t.items[id]
	if !ok || !inScope(scope, it) {
		return repository.ErrNotFound
	}
	it.Done = !it.Done
	t.items[id] = it
	return nil
}

func (t *Todos) RenameByID(_ context.Context, scope models.Scope, id, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.enter("RenameByID"); err != nil {
		return err
	}
	it, ok := t.items[id]
	if !ok || !inScope(scope, it) {
		return repository.ErrNotFound
	}
	it.Name = name
	t.items[id] = it
	return nil
}

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu    sync.Mutex
	users map[string]models.User

	Errs map[string]error
}

func NewUsers(users ...models.User) *Users {
	u := &Users{users: map[string]models.User{}, Errs: map[string]error{}}
	for _, usr := range users {
		u.users[usr.ID] = usr
	}
	return u
}

func (u *Users) Get(id string) (models.User, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	usr, ok := u.users[id]
	return usr, ok
}

func (u *Users) Delete(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.users, id)
}

func (u *Users) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.Errs["FindUserByUsername"]; err != nil {
		return nil, err
	}
	usr, ok := u.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &usr, nil
}

func (u *Users) InsertUser(_ context.Context, username, hashedPassword string, isAdmin bool) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.Errs["InsertUser"]; err != nil {
		return nil, err
	}
	if _, ok := u.users[username]; ok {
		return nil, fmt.Errorf("user %s: %w", username, repository.ErrConflict)
	}
	usr := models.User{
		ID:             username,
		HashedPassword: hashedPassword,
		IsAdmin:        isAdmin,
		CreatedAt:      time.Now().UTC(),
	}
	u.users[username] = usr
	return &usr, nil
}

var (
	_ repository.TodoRepository = (*Todos)(nil)
	_ repository.UserRepository = (*Users)(nil)
)
