package auth

import (
	"context"
	"errors"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const RoleUser = "user"

type User struct {
	ID       string
	Email    string
	Username string
	Hash     []byte
	Role     string
}

type UserStore interface {
	Create(ctx context.Context, u User, password string) error
	Verify(ctx context.Context, email, password string) (User, error)
}
