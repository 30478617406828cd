package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atlantic-photo/internal/database"
	"atlantic-photo/internal/model"
)

const tagColumns = `id, name, COALESCE(user_id, 0), created_at`

type TagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

func scanTag(row pgx.Row) (model.Tag, error) {
	var t model.Tag
	err := row.Scan(&t.ID, &t.Name, &t.UserID, &t.CreatedAt)
	return t, err
}

func (r *TagRepository) FindByID(ctx context.Context, id int64) (model.Tag, error) {
	t, err := scanTag(r.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id))
	if isNoRows(err) {
		return model.Tag{}, notFound("tag", id)
	}
	if err != nil {
		return model.Tag{}, fmt.Errorf("find tag: %w", err)
	}
	return t, nil
}

func (r *TagRepository) FindByName(ctx context.Context, name string) (model.Tag, error) {
	t, err := scanTag(r.pool.QueryRow(ctx, `SELECT `+tagColumns+` FROM tags WHERE name = $1`, strings.TrimSpace(name)))
	if isNoRows(err) {
		return model.Tag{}, notFound("tag", name)
	}
	if err != nil {
		return model.Tag{}, fmt.Errorf("find tag by name: %w", err)
	}
	return t, nil
}

// AttachToImage gets or creates the tag called name and links it to the
// image. The image row is locked so concurrent attaches cannot exceed
// maxTags. Attaching a tag the image already carries is a no-op.
func (r *TagRepository) AttachToImage(ctx context.Context, imageID int64, name string, userID int64, maxTags int) (model.Tag, error) {
	var tag model.Tag
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM images WHERE id = $1 FOR UPDATE`, imageID).Scan(&locked)
		if isNoRows(err) {
			return notFound("image", imageID)
		}
		if err != nil {
			return fmt.Errorf("lock image: %w", err)
		}

		existing, err := scanTag(tx.QueryRow(ctx,
			`SELECT t.id, t.name, COALESCE(t.user_id, 0), t.created_at
			 FROM tags t JOIN image_tags it ON it.tag_id = t.id
			 WHERE it.image_id = $1 AND t.name = $2`, imageID, name))
		if err == nil {
			tag = existing
			return nil
		}
		if !isNoRows(err) {
			return fmt.Errorf("check image tag: %w", err)
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM image_tags WHERE image_id = $1`, imageID).Scan(&count); err != nil {
			return fmt.Errorf("count image tags: %w", err)
		}
		if count >= maxTags {
			return fmt.Errorf("image %d already has %d tags: %w", imageID, count, model.ErrTooManyTags)
		}

		tag, err = upsertTag(ctx, tx, name, userID)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO image_tags (image_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			imageID, tag.ID); err != nil {
			return fmt.Errorf("associate tag: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Tag{}, fmt.Errorf("attach tag %q: %w", name, err)
	}
	return tag, nil
}

func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("tag", id)
	}
	return nil
}

// upsertTag returns the tag called name, creating it owned by userID when
// it does not exist yet.
func upsertTag(ctx context.Context, tx pgx.Tx, name string, userID int64) (model.Tag, error) {
	t, err := scanTag(tx.QueryRow(ctx,
		`INSERT INTO tags (name, user_id) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING `+tagColumns, name, userID))
	if err != nil {
		return model.Tag{}, fmt.Errorf("upsert tag %q: %w", name, err)
	}
	return t, nil
}
