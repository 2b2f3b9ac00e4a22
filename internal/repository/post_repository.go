package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/feed-service/internal/domain"
)

// PostRepository encapsulates post persistence. List returns posts newest
// first, ties broken by insertion order (latest insert first).
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	Update(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.Post, error)
	Count(ctx context.Context) (int64, error)
	// ImageInUse reports whether a post other than excludeID references imageURL.
	ImageInUse(ctx context.Context, imageURL, excludeID string) (bool, error)
}

type postRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository instantiates the Postgres repository.
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

const postColumns = `
        p.id, p.seq, p.title, p.content, p.image_url, p.creator_id,
        u.name, p.created_at, p.updated_at`

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	const query = `
        INSERT INTO posts (title, content, image_url, creator_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, seq, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		post.Title,
		post.Content,
		post.ImageURL,
		post.CreatorID,
	).Scan(&post.ID, &post.Seq, &post.CreatedAt, &post.UpdatedAt)
	return mapPgError(err)
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	const query = `
        UPDATE posts SET title=$1, content=$2, image_url=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		post.Title,
		post.Content,
		post.ImageURL,
		post.ID,
	).Scan(&post.UpdatedAt)
	return mapPgError(err)
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `SELECT` + postColumns + `
        FROM posts p LEFT JOIN users u ON u.id = p.creator_id
        WHERE p.id=$1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return post, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	query := `SELECT` + postColumns + `
        FROM posts p LEFT JOIN users u ON u.id = p.creator_id
        ORDER BY p.created_at DESC, p.seq DESC
        LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]domain.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *postRepository) ImageInUse(ctx context.Context, imageURL, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM posts WHERE image_url=$1 AND id<>$2)`

	var inUse bool
	if err := r.pool.QueryRow(ctx, query, imageURL, excludeID).Scan(&inUse); err != nil {
		return false, err
	}
	return inUse, nil
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		post        domain.Post
		creatorName *string
	)
	if err := row.Scan(
		&post.ID,
		&post.Seq,
		&post.Title,
		&post.Content,
		&post.ImageURL,
		&post.CreatorID,
		&creatorName,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if creatorName != nil {
		post.Creator = &domain.Author{ID: post.CreatorID, Name: *creatorName}
	}
	return &post, nil
}
