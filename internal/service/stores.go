package service

import (
	"context"
	"time"

	"atlantic-photo/internal/model"
)

// The interfaces below are the slices of the Postgres repositories each
// service depends on.

type UserStore interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

type SessionStore interface {
	Set(ctx context.Context, userID int64, token string) error
	Swap(ctx context.Context, userID int64, current string, next string) (bool, error)
	Clear(ctx context.Context, userID int64) error
	EndSession(ctx context.Context, userID int64, current string) (bool, error)
}

type ImageStore interface {
	Create(ctx context.Context, img model.Image, tagNames []string) (model.Image, error)
	FindByID(ctx context.Context, id int64) (model.Image, error)
	ListByOwner(ctx context.Context, ownerID int64, page model.Page) ([]model.Image, error)
	ListAll(ctx context.Context, page model.Page) ([]model.Image, error)
	UpdateDescription(ctx context.Context, id int64, description string) (model.Image, error)
	Delete(ctx context.Context, id int64) error
}

type TagStore interface {
	FindByID(ctx context.Context, id int64) (model.Tag, error)
	AttachToImage(ctx context.Context, imageID int64, name string, userID int64, maxTags int) (model.Tag, error)
	Delete(ctx context.Context, id int64) error
}

type CommentStore interface {
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	FindByID(ctx context.Context, id int64) (model.Comment, error)
	UpdateContent(ctx context.Context, id int64, content string, at time.Time) (model.Comment, error)
	Delete(ctx context.Context, id int64) error
	ListByImage(ctx context.Context, imageID int64) ([]model.Comment, error)
}

type TransformStore interface {
	Create(ctx context.Context, p model.TransformedPic) (model.TransformedPic, error)
	FindByID(ctx context.Context, id int64) (model.TransformedPic, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.TransformedPic, error)
	UpdateAsset(ctx context.Context, id int64, url string, publicID string, params model.TransformParams, at time.Time) (model.TransformedPic, error)
	Delete(ctx context.Context, id int64) error
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}
