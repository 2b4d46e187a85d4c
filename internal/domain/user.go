package domain

import "time"

// User is an account as reported by the OAuth provider.
// A user is identified internally by ID and externally by provider+subject.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}
