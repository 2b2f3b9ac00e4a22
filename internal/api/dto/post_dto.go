package dto

import (
	"time"

	"github.com/spec-kit/feed-service/internal/domain"
)

// Creator is the public creator summary.
type Creator struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Post is the public post representation shared by REST and notifications.
type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   Creator   `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPost maps a domain post; an unresolved creator keeps only its id.
func NewPost(p domain.Post) Post {
	creator := Creator{ID: p.CreatorID}
	if p.Creator != nil {
		creator.Name = p.Creator.Name
	}
	return Post{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   creator,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewPosts maps a slice, never returning nil.
func NewPosts(posts []domain.Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPost(p))
	}
	return out
}

// PostListResponse is returned by GET /feed/posts.
type PostListResponse struct {
	Message    string `json:"message"`
	Posts      []Post `json:"posts"`
	TotalItems int64  `json:"totalItems"`
}

// PostResponse wraps a single post.
type PostResponse struct {
	Message string `json:"message"`
	Post    Post   `json:"post"`
}

// PostCreatedResponse is returned by POST /feed/post.
type PostCreatedResponse struct {
	Message string  `json:"message"`
	Post    Post    `json:"post"`
	Creator Creator `json:"creator"`
}

// ImageUploadResponse is returned by PUT /post-image.
type ImageUploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath,omitempty"`
}

// PostNotification is the realtime wire message. Post is a Post for create
// and update, and the post id for delete.
type PostNotification struct {
	Action string `json:"action"`
	Post   any    `json:"post"`
}
