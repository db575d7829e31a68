package models

import "time"

// User is a registered account. ID is the username chosen at registration.
type User struct {
	ID             string    `db:"id"`
	HashedPassword string    `db:"hashed_password"`
	IsAdmin        bool      `db:"is_admin"`
	CreatedAt      time.Time `db:"created_at"`
}
