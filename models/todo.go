package models

import "time"

type TodoItem struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	Done      bool       `db:"done"`
	DueDate   *time.Time `db:"due_date"`
	CreatedBy string     `db:"created_by"`
}

// HasDueDate reports whether the item carries a due date; used by templates.
func (t TodoItem) HasDueDate() bool {
	return t.DueDate != nil
}

// Scope restricts item queries to a single owner unless All is set.
type Scope struct {
	OwnerID string
	All     bool
}

// ScopeFor returns the owner scope a user is entitled to: admins see every
// item, everyone else only their own.
func ScopeFor(u *User) Scope {
	if u.IsAdmin {
		return Scope{OwnerID: u.ID, All: true}
	}
	return Scope{OwnerID: u.ID}
}
