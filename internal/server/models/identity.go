// Package models defines server-side data models persisted in the database.
package models

import "time"

// Identity is a registered user. It is created on signup and never mutated
// or deleted by the token lifecycle.
type Identity struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
