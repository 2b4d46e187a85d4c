package live

import (
	"context"

	"github.com/smartmark/smartmark"
)

// AuthService is the session authority consumed by the engine.
type AuthService interface {
	GetCurrentSession(ctx context.Context) (*smartmark.Session, error)
	// SubscribeToAuthChanges registers a handler invoked on every session
	// transition (sign-in, sign-out, refresh). A nil session means signed out.
	// The returned function removes the handler.
	SubscribeToAuthChanges(handler func(*smartmark.Session)) func()
	SignInWithOAuth(ctx context.Context, provider string) error
	SignOut(ctx context.Context) error
}

// DataStore is the authoritative persisted copy of the bookmarks.
type DataStore interface {
	// ListBookmarks returns the owner's bookmarks ordered by creation
	// time descending.
	ListBookmarks(ctx context.Context, ownerID string) ([]smartmark.Bookmark, error)
	InsertBookmark(ctx context.Context, title string, url string, ownerID string) error
	DeleteBookmark(ctx context.Context, id string) error
}

// ChangeFeed delivers committed row changes for one owner. The
// subscription lives until ctx is cancelled; the returned channel is
// closed when it ends.
type ChangeFeed interface {
	Subscribe(ctx context.Context, ownerID string) (<-chan smartmark.Event, error)
}
