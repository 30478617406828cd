package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atlantic-photo/internal/database"
	"atlantic-photo/internal/model"
)

const imageColumns = `id, description, url, public_id, user_id, created_at, updated_at`

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func scanImage(row pgx.Row) (model.Image, error) {
	var img model.Image
	err := row.Scan(&img.ID, &img.Description, &img.URL, &img.PublicID, &img.UserID, &img.CreatedAt, &img.UpdatedAt)
	return img, err
}

// Create inserts the image, associates tagNames (creating missing tags) and
// bumps the owner's picture count in a single transaction.
func (r *ImageRepository) Create(ctx context.Context, img model.Image, tagNames []string) (model.Image, error) {
	var created model.Image
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = scanImage(tx.QueryRow(ctx,
			`INSERT INTO images (description, url, public_id, user_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+imageColumns,
			img.Description, img.URL, img.PublicID, img.UserID))
		if err != nil {
			return fmt.Errorf("insert image: %w", err)
		}

		created.Tags = make([]model.Tag, 0, len(tagNames))
		for _, name := range tagNames {
			tag, err := upsertTag(ctx, tx, name, img.UserID)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO image_tags (image_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				created.ID, tag.ID); err != nil {
				return fmt.Errorf("associate tag %q: %w", name, err)
			}
			created.Tags = append(created.Tags, tag)
		}

		return adjustPictureCount(ctx, tx, img.UserID, 1)
	})
	if err != nil {
		return model.Image{}, fmt.Errorf("create image: %w", err)
	}
	return created, nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id int64) (model.Image, error) {
	img, err := scanImage(r.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM images WHERE id = $1`, id))
	if isNoRows(err) {
		return model.Image{}, notFound("image", id)
	}
	if err != nil {
		return model.Image{}, fmt.Errorf("find image: %w", err)
	}

	images := []model.Image{img}
	if err := r.attachTags(ctx, images); err != nil {
		return model.Image{}, err
	}
	return images[0], nil
}

func (r *ImageRepository) ListByOwner(ctx context.Context, ownerID int64, page model.Page) ([]model.Image, error) {
	return r.list(ctx,
		`SELECT `+imageColumns+` FROM images WHERE user_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		ownerID, page.Limit, page.Offset)
}

func (r *ImageRepository) ListAll(ctx context.Context, page model.Page) ([]model.Image, error) {
	return r.list(ctx,
		`SELECT `+imageColumns+` FROM images ORDER BY id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
}

func (r *ImageRepository) UpdateDescription(ctx context.Context, id int64, description string) (model.Image, error) {
	img, err := scanImage(r.pool.QueryRow(ctx,
		`UPDATE images SET description = $2, updated_at = now() WHERE id = $1 RETURNING `+imageColumns,
		id, description))
	if isNoRows(err) {
		return model.Image{}, notFound("image", id)
	}
	if err != nil {
		return model.Image{}, fmt.Errorf("update image: %w", err)
	}

	images := []model.Image{img}
	if err := r.attachTags(ctx, images); err != nil {
		return model.Image{}, err
	}
	return images[0], nil
}

// Delete removes the image (comments and tag links cascade) and decrements
// the owner's picture count in the same transaction.
func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var ownerID int64
		err := tx.QueryRow(ctx, `DELETE FROM images WHERE id = $1 RETURNING user_id`, id).Scan(&ownerID)
		if isNoRows(err) {
			return notFound("image", id)
		}
		if err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		return adjustPictureCount(ctx, tx, ownerID, -1)
	})
	if err != nil {
		return fmt.Errorf("delete image %d: %w", id, err)
	}
	return nil
}

func (r *ImageRepository) list(ctx context.Context, query string, args ...any) ([]model.Image, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := make([]model.Image, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	if err := r.attachTags(ctx, images); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) attachTags(ctx context.Context, images []model.Image) error {
	if len(images) == 0 {
		return nil
	}

	ids := make([]int64, len(images))
	index := make(map[int64]int, len(images))
	for i := range images {
		ids[i] = images[i].ID
		index[images[i].ID] = i
		images[i].Tags = make([]model.Tag, 0)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT it.image_id, t.id, t.name, COALESCE(t.user_id, 0), t.created_at
		 FROM image_tags it JOIN tags t ON t.id = it.tag_id
		 WHERE it.image_id = ANY($1)
		 ORDER BY t.name`, ids)
	if err != nil {
		return fmt.Errorf("load image tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var imageID int64
		var t model.Tag
		if err := rows.Scan(&imageID, &t.ID, &t.Name, &t.UserID, &t.CreatedAt); err != nil {
			return fmt.Errorf("scan image tag: %w", err)
		}
		i := index[imageID]
		images[i].Tags = append(images[i].Tags, t)
	}
	return rows.Err()
}

func adjustPictureCount(ctx context.Context, tx pgx.Tx, userID int64, delta int) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET picture_count = GREATEST(picture_count + $2, 0), updated_at = now() WHERE id = $1`,
		userID, delta)
	if err != nil {
		return fmt.Errorf("adjust picture count: %w", err)
	}
	return nil
}
