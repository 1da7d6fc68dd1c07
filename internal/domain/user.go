package domain

import "context"

type User struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

type UserRepository interface {
	// FindUser returns ErrNotFound when no such user exists.
	FindUser(ctx context.Context, userID int64) (*User, error)
}
