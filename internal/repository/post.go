package repository

import (
	"context"

	"twitter-clone/internal/domain"
)

// PostRepository manages posts authored by users.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) error
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Post, error)
}
