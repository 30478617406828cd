// Package provider stores uploaded images and renders transformed
// derivatives. Adapters classify their own failures; callers only see
// *Error values wrapping model.ErrUpstreamProvider.
package provider

import (
	"context"
	"fmt"
	"io"

	"atlantic-photo/internal/model"
)

const rootFolder = "AtlanticPhoto"

// Asset is a stored image: a provider-scoped id and a public URL.
type Asset struct {
	PublicID string
	URL      string
}

type Provider interface {
	Upload(ctx context.Context, folder string, filename string, r io.Reader) (Asset, error)
	Transform(ctx context.Context, source Asset, folder string, params model.TransformParams) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

func ImagesFolder(userID int64) string {
	return fmt.Sprintf("%s/user_%d/images", rootFolder, userID)
}

func TransformedFolder(userID int64) string {
	return fmt.Sprintf("%s/user_%d/transformed_images", rootFolder, userID)
}
