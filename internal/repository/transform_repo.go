package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atlantic-photo/internal/model"
)

const transformColumns = `id, url, public_id, original_pic_id, user_id, params, created_at, updated_at`

type TransformRepository struct {
	pool *pgxpool.Pool
}

func NewTransformRepository(pool *pgxpool.Pool) *TransformRepository {
	return &TransformRepository{pool: pool}
}

// params is stored as JSONB; pgx encodes and decodes the struct as JSON.
func scanTransform(row pgx.Row) (model.TransformedPic, error) {
	var p model.TransformedPic
	err := row.Scan(&p.ID, &p.URL, &p.PublicID, &p.OriginalPicID, &p.UserID, &p.Params, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *TransformRepository) Create(ctx context.Context, p model.TransformedPic) (model.TransformedPic, error) {
	created, err := scanTransform(r.pool.QueryRow(ctx,
		`INSERT INTO transformed_pics (url, public_id, original_pic_id, user_id, params)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+transformColumns,
		p.URL, p.PublicID, p.OriginalPicID, p.UserID, p.Params))
	if err != nil {
		return model.TransformedPic{}, fmt.Errorf("create transformed pic: %w", err)
	}
	return created, nil
}

func (r *TransformRepository) FindByID(ctx context.Context, id int64) (model.TransformedPic, error) {
	p, err := scanTransform(r.pool.QueryRow(ctx, `SELECT `+transformColumns+` FROM transformed_pics WHERE id = $1`, id))
	if isNoRows(err) {
		return model.TransformedPic{}, notFound("transformed pic", id)
	}
	if err != nil {
		return model.TransformedPic{}, fmt.Errorf("find transformed pic: %w", err)
	}
	return p, nil
}

func (r *TransformRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.TransformedPic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transformColumns+` FROM transformed_pics WHERE user_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transformed pics: %w", err)
	}
	defer rows.Close()

	pics := make([]model.TransformedPic, 0)
	for rows.Next() {
		p, err := scanTransform(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transformed pic: %w", err)
		}
		pics = append(pics, p)
	}
	return pics, rows.Err()
}

func (r *TransformRepository) UpdateAsset(ctx context.Context, id int64, url string, publicID string, params model.TransformParams, at time.Time) (model.TransformedPic, error) {
	p, err := scanTransform(r.pool.QueryRow(ctx,
		`UPDATE transformed_pics SET url = $2, public_id = $3, params = $4, updated_at = $5
		 WHERE id = $1 RETURNING `+transformColumns,
		id, url, publicID, params, at))
	if isNoRows(err) {
		return model.TransformedPic{}, notFound("transformed pic", id)
	}
	if err != nil {
		return model.TransformedPic{}, fmt.Errorf("update transformed pic: %w", err)
	}
	return p, nil
}

func (r *TransformRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transformed_pics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transformed pic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("transformed pic", id)
	}
	return nil
}
