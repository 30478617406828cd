package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"atlantic-photo/internal/event"
	"atlantic-photo/internal/model"
	"atlantic-photo/internal/policy"
	"atlantic-photo/internal/provider"
)

type ImageService struct {
	images   ImageStore
	provider provider.Provider
	bus      event.Bus
}

func NewImageService(images ImageStore, p provider.Provider, bus event.Bus) *ImageService {
	return &ImageService{images: images, provider: p, bus: bus}
}

// UploadInput is a validated-on-entry image upload.
type UploadInput struct {
	Description string
	Tags        string // comma-separated
	Filename    string
	Content     io.Reader
}

func (s *ImageService) ListMine(ctx context.Context, requester model.User, page model.Page) ([]model.Image, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return s.images.ListByOwner(ctx, requester.ID, page)
}

func (s *ImageService) ListAll(ctx context.Context, requester model.User, page model.Page) ([]model.Image, error) {
	if !policy.CanListAll(requester) {
		s.denied(requester, "image:*")
		return nil, fmt.Errorf("list all images: %w", model.ErrForbidden)
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return s.images.ListAll(ctx, page)
}

func (s *ImageService) Get(ctx context.Context, requester model.User, id int64) (model.Image, error) {
	return s.authorized(ctx, requester, id)
}

// Create uploads the content and records the image with its tags. The tag
// limit is enforced before anything is uploaded; when the database write
// fails the uploaded asset is removed again.
func (s *ImageService) Create(ctx context.Context, requester model.User, in UploadInput) (model.Image, error) {
	description, err := validateDescription(in.Description)
	if err != nil {
		return model.Image{}, err
	}

	tags, err := ParseTags(in.Tags)
	if err != nil {
		return model.Image{}, err
	}

	asset, err := s.provider.Upload(ctx, provider.ImagesFolder(requester.ID), in.Filename, in.Content)
	if err != nil {
		s.providerFailed(requester, "upload", err)
		return model.Image{}, err
	}

	img, err := s.images.Create(ctx, model.Image{
		Description: description,
		URL:         asset.URL,
		PublicID:    asset.PublicID,
		UserID:      requester.ID,
	}, tags)
	if err != nil {
		if delErr := s.provider.Delete(context.WithoutCancel(ctx), asset.PublicID); delErr != nil {
			slog.Error("failed to remove orphaned upload", "public_id", asset.PublicID, "error", delErr)
		}
		return model.Image{}, err
	}

	s.bus.Publish(event.New(event.TypeImageUploaded, requester.ID, requester.Email, policy.ImageRef(img).String(), map[string]any{
		"tags": tags,
	}))
	return img, nil
}

func (s *ImageService) UpdateDescription(ctx context.Context, requester model.User, id int64, description string) (model.Image, error) {
	description, err := validateDescription(description)
	if err != nil {
		return model.Image{}, err
	}

	if _, err := s.authorized(ctx, requester, id); err != nil {
		return model.Image{}, err
	}

	img, err := s.images.UpdateDescription(ctx, id, description)
	if err != nil {
		return model.Image{}, err
	}

	s.bus.Publish(event.New(event.TypeImageUpdated, requester.ID, requester.Email, policy.ImageRef(img).String(), nil))
	return img, nil
}

func (s *ImageService) Delete(ctx context.Context, requester model.User, id int64) error {
	img, err := s.authorized(ctx, requester, id)
	if err != nil {
		return err
	}

	if err := s.images.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.provider.Delete(ctx, img.PublicID); err != nil {
		slog.Warn("failed to delete image asset", "public_id", img.PublicID, "error", err)
		s.providerFailed(requester, "delete", err)
	}

	s.bus.Publish(event.New(event.TypeImageDeleted, requester.ID, requester.Email, policy.ImageRef(img).String(), nil))
	return nil
}

func (s *ImageService) authorized(ctx context.Context, requester model.User, id int64) (model.Image, error) {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return model.Image{}, err
	}

	ref := policy.ImageRef(img)
	if err := policy.Authorize(ref, requester); err != nil {
		s.denied(requester, ref.String())
		return model.Image{}, err
	}
	return img, nil
}

func (s *ImageService) denied(requester model.User, resource string) {
	s.bus.Publish(event.New(event.TypeAccessDenied, requester.ID, requester.Email, resource, nil))
}

func (s *ImageService) providerFailed(requester model.User, op string, err error) {
	s.bus.Publish(event.New(event.TypeProviderCallFailed, requester.ID, requester.Email, "", map[string]any{
		"op":    op,
		"error": err.Error(),
	}))
}

// ParseTags splits a comma-separated tag list, dropping blanks and
// duplicates. More than model.MaxTagsPerImage distinct tags is an error.
func ParseTags(raw string) ([]string, error) {
	names := lo.Uniq(lo.Compact(lo.Map(strings.Split(raw, ","), func(name string, _ int) string {
		return strings.TrimSpace(name)
	})))

	if len(names) > model.MaxTagsPerImage {
		return nil, fmt.Errorf("%w: at most %d tags per image, got %d", model.ErrTooManyTags, model.MaxTagsPerImage, len(names))
	}

	for i, name := range names {
		valid, err := validateTagName(name)
		if err != nil {
			return nil, err
		}
		names[i] = valid
	}
	return names, nil
}
