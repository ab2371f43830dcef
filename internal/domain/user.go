package domain

import "time"

// User represents a registered account of the network.
type User struct {
	ID           string
	Email        string
	Username     string
	Fullname     string
	PasswordHash string
	ConfirmHash  string
	Confirmed    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// Posts is only populated when explicitly requested.
	Posts []Post
}
