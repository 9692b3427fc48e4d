package domain

import "time"

// User represents a registered account. Users are created at registration and
// never mutated or deleted afterwards.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
