package users

import "time"

// User represents a principal account. PasswordHash is write-only: it is
// verified and rotated but never exposed through the API.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	RoleID       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
