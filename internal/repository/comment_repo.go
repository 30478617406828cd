package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atlantic-photo/internal/model"
)

const commentColumns = `id, content, user_id, image_id, created_at, updated_at`

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row pgx.Row) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.Content, &c.UserID, &c.ImageID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CommentRepository) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	created, err := scanComment(r.pool.QueryRow(ctx,
		`INSERT INTO comments (content, user_id, image_id)
		 VALUES ($1, $2, $3)
		 RETURNING `+commentColumns,
		c.Content, c.UserID, c.ImageID))
	if err != nil {
		return model.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return created, nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (model.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if isNoRows(err) {
		return model.Comment{}, notFound("comment", id)
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, id int64, content string, at time.Time) (model.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx,
		`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1 RETURNING `+commentColumns,
		id, content, at))
	if isNoRows(err) {
		return model.Comment{}, notFound("comment", id)
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return c, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("comment", id)
	}
	return nil
}

func (r *CommentRepository) ListByImage(ctx context.Context, imageID int64) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE image_id = $1 ORDER BY id`, imageID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
