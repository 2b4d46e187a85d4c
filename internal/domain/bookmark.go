package domain

import "time"

// Bookmark is a saved link owned by exactly one user.
type Bookmark struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Owner     string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
