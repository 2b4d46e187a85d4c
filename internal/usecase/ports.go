package usecase

import (
	"context"

	"github.com/smartmark/smartmark"
	"github.com/smartmark/smartmark/internal/domain"
)

// BookmarkRepository defines storage operations for bookmarks.
type BookmarkRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error)
	Create(ctx context.Context, bookmark domain.Bookmark) (domain.Bookmark, error)
	Get(ctx context.Context, id string) (domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
}

// UserRepository defines persistence/lookup for users.
type UserRepository interface {
	Upsert(ctx context.Context, user domain.User) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
}

// EventPublisher delivers committed row changes to the change feed.
type EventPublisher interface {
	Publish(ctx context.Context, ownerID string, event smartmark.Event) error
}
