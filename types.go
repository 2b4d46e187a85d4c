package smartmark

import (
	"time"
)

const (
	EventTypeInsert = "INSERT"
	EventTypeDelete = "DELETE"
)

// Bookmark is the wire representation of a saved link, shared between
// the server surface and the client adapters.
type Bookmark struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Owner     string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is one committed row change delivered over the change feed.
// New carries the inserted row; OldID carries the deleted row's id.
type Event struct {
	Type  string    `json:"type"`
	Owner string    `json:"user_id"`
	New   *Bookmark `json:"new,omitempty"`
	OldID string    `json:"old_id,omitempty"`
}

type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session describes an authenticated session as reported by the auth surface.
type Session struct {
	User      SessionUser `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type CreateBookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
