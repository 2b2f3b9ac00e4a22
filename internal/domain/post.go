package domain

import "time"

// Author is the creator summary embedded in post responses.
type Author struct {
	ID   string
	Name string
}

// Post is the aggregate for feed entries.
type Post struct {
	ID        string
	Title     string
	Content   string
	ImageURL  string
	CreatorID string
	Creator   *Author
	// Seq is the store-assigned insertion sequence; it breaks creation time ties.
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
