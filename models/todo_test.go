package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScopeFor(t *testing.T) {
	assert.Equal(t, Scope{OwnerID: "alice"}, ScopeFor(&User{ID: "alice"}))
	assert.Equal(t, Scope{OwnerID: "root", All: true}, ScopeFor(&User{ID: "root", IsAdmin: true}))
}

func TestHasDueDate(t *testing.T) {
	now := time.Now()
	assert.False(t, TodoItem{}.HasDueDate())
	assert.True(t, TodoItem{DueDate: &now}.HasDueDate())
}
