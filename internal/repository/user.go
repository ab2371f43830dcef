package repository

import (
	"context"
	"errors"

	"twitter-clone/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique constraint rejects an insert.
	ErrAlreadyExists = errors.New("already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByConfirmHash(ctx context.Context, hash string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByLogin matches either the username or the email, preferring the email.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	SetConfirmed(ctx context.Context, id string) error
}
