package provider

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"atlantic-photo/internal/model"
	"atlantic-photo/internal/storage"
)

// MediaPrefix is the URL path under which local assets are served.
const MediaPrefix = "/media/"

// MaxPixels caps the declared width*height of an image accepted for decoding.
const MaxPixels = 40_000_000

var formatExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"bmp":  ".bmp",
	"tiff": ".tiff",
	"webp": ".webp",
}

// Local keeps assets on disk and renders transformations in process.
// Public ids carry a BLAKE3 digest of the content plus a random suffix, so
// identical uploads never share a file.
type Local struct {
	store   storage.Storage
	baseURL string
}

func NewLocal(store storage.Storage, baseURL string) *Local {
	return &Local{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Upload(ctx context.Context, folder string, filename string, r io.Reader) (Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Asset{}, fmt.Errorf("read upload %q: %w", filename, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %s is not a supported image", model.ErrValidationFailed, filename)
	}
	if err := checkDimensions(filename, cfg); err != nil {
		return Asset{}, err
	}

	if err := ctx.Err(); err != nil {
		return Asset{}, Classify("upload", err)
	}

	publicID := path.Join(folder, contentID(data)+formatExtensions[format])
	if _, err := l.store.Save(publicID, bytes.NewReader(data)); err != nil {
		return Asset{}, providerError("upload", 0, err)
	}

	return Asset{PublicID: publicID, URL: l.urlFor(publicID)}, nil
}

func (l *Local) Transform(ctx context.Context, source Asset, folder string, params model.TransformParams) (Asset, error) {
	f, err := l.store.Open(source.PublicID)
	if err != nil {
		return Asset{}, providerError("transform", 0, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Asset{}, providerError("transform", 0, fmt.Errorf("decode %s: %w", source.PublicID, err))
	}
	if err := checkDimensions(source.PublicID, cfg); err != nil {
		return Asset{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Asset{}, providerError("transform", 0, err)
	}

	src, _, err := image.Decode(f)
	if err != nil {
		return Asset{}, providerError("transform", 0, fmt.Errorf("decode %s: %w", source.PublicID, err))
	}

	if err := ctx.Err(); err != nil {
		return Asset{}, Classify("transform", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, render(src, params)); err != nil {
		return Asset{}, providerError("transform", 0, fmt.Errorf("encode: %w", err))
	}

	publicID := path.Join(folder, contentID(buf.Bytes())+".png")
	if _, err := l.store.Save(publicID, &buf); err != nil {
		return Asset{}, providerError("transform", 0, err)
	}

	return Asset{PublicID: publicID, URL: l.urlFor(publicID)}, nil
}

func (l *Local) Delete(_ context.Context, publicID string) error {
	if err := l.store.Remove(publicID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return providerError("delete", 0, err)
	}
	return nil
}

func (l *Local) urlFor(publicID string) string {
	return l.baseURL + MediaPrefix + publicID
}

func checkDimensions(name string, cfg image.Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %s is %dx%d, limit is %d pixels", model.ErrValidationFailed, name, cfg.Width, cfg.Height, MaxPixels)
	}
	return nil
}

func contentID(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:12]) + "_" + uuid.NewString()[:8]
}
