package domain

import "time"

// Post is a message authored by a user.
type Post struct {
	ID        string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}
