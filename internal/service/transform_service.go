package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"atlantic-photo/internal/event"
	"atlantic-photo/internal/model"
	"atlantic-photo/internal/policy"
	"atlantic-photo/internal/provider"
)

type TransformService struct {
	transforms TransformStore
	images     ImageStore
	provider   provider.Provider
	bus        event.Bus
	now        func() time.Time
}

func NewTransformService(transforms TransformStore, images ImageStore, p provider.Provider, bus event.Bus) *TransformService {
	return &TransformService{transforms: transforms, images: images, provider: p, bus: bus, now: time.Now}
}

// Create renders a derivative of an image the requester may access. The
// derivative belongs to the requester, not to the image owner.
func (s *TransformService) Create(ctx context.Context, requester model.User, originalID int64, params model.TransformParams) (model.TransformedPic, error) {
	if err := params.Validate(); err != nil {
		return model.TransformedPic{}, err
	}

	original, err := s.images.FindByID(ctx, originalID)
	if err != nil {
		return model.TransformedPic{}, err
	}

	ref := policy.ImageRef(original)
	if err := policy.Authorize(ref, requester); err != nil {
		s.denied(requester, ref)
		return model.TransformedPic{}, err
	}

	asset, err := s.render(ctx, requester, original, params)
	if err != nil {
		return model.TransformedPic{}, err
	}

	pic, err := s.transforms.Create(ctx, model.TransformedPic{
		URL:           asset.URL,
		PublicID:      asset.PublicID,
		OriginalPicID: &original.ID,
		UserID:        requester.ID,
		Params:        params,
	})
	if err != nil {
		s.discard(ctx, asset.PublicID)
		return model.TransformedPic{}, err
	}

	s.bus.Publish(event.New(event.TypeTransformCreated, requester.ID, requester.Email, policy.TransformRef(pic).String(), params))
	return pic, nil
}

func (s *TransformService) ListMine(ctx context.Context, requester model.User) ([]model.TransformedPic, error) {
	return s.transforms.ListByOwner(ctx, requester.ID)
}

func (s *TransformService) Get(ctx context.Context, requester model.User, id int64) (model.TransformedPic, error) {
	return s.authorized(ctx, requester, id)
}

// Update re-renders the derivative from its source image with patched
// parameters and replaces the stored asset.
func (s *TransformService) Update(ctx context.Context, requester model.User, id int64, patch model.TransformPatch) (model.TransformedPic, error) {
	pic, err := s.authorized(ctx, requester, id)
	if err != nil {
		return model.TransformedPic{}, err
	}

	params := patch.Apply(pic.Params)
	if err := params.Validate(); err != nil {
		return model.TransformedPic{}, err
	}

	if pic.OriginalPicID == nil {
		return model.TransformedPic{}, fmt.Errorf("transformed_pic:%d has no source image: %w", pic.ID, model.ErrConflict)
	}
	original, err := s.images.FindByID(ctx, *pic.OriginalPicID)
	if err != nil {
		return model.TransformedPic{}, err
	}

	asset, err := s.render(ctx, requester, original, params)
	if err != nil {
		return model.TransformedPic{}, err
	}

	updated, err := s.transforms.UpdateAsset(ctx, pic.ID, asset.URL, asset.PublicID, params, s.now().UTC())
	if err != nil {
		s.discard(ctx, asset.PublicID)
		return model.TransformedPic{}, err
	}
	s.discard(ctx, pic.PublicID)

	s.bus.Publish(event.New(event.TypeTransformUpdated, requester.ID, requester.Email, policy.TransformRef(updated).String(), params))
	return updated, nil
}

func (s *TransformService) Delete(ctx context.Context, requester model.User, id int64) error {
	pic, err := s.authorized(ctx, requester, id)
	if err != nil {
		return err
	}

	if err := s.transforms.Delete(ctx, pic.ID); err != nil {
		return err
	}
	s.discard(ctx, pic.PublicID)

	s.bus.Publish(event.New(event.TypeTransformDeleted, requester.ID, requester.Email, policy.TransformRef(pic).String(), nil))
	return nil
}

// QRCode renders a PNG QR code pointing at the derivative's public URL.
func (s *TransformService) QRCode(ctx context.Context, requester model.User, id int64) ([]byte, error) {
	pic, err := s.authorized(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	return provider.QRCode(pic.URL, provider.DefaultQRSize)
}

func (s *TransformService) authorized(ctx context.Context, requester model.User, id int64) (model.TransformedPic, error) {
	pic, err := s.transforms.FindByID(ctx, id)
	if err != nil {
		return model.TransformedPic{}, err
	}

	ref := policy.TransformRef(pic)
	if err := policy.Authorize(ref, requester); err != nil {
		s.denied(requester, ref)
		return model.TransformedPic{}, err
	}
	return pic, nil
}

func (s *TransformService) render(ctx context.Context, requester model.User, original model.Image, params model.TransformParams) (provider.Asset, error) {
	source := provider.Asset{PublicID: original.PublicID, URL: original.URL}
	asset, err := s.provider.Transform(ctx, source, provider.TransformedFolder(requester.ID), params)
	if err != nil {
		s.bus.Publish(event.New(event.TypeProviderCallFailed, requester.ID, requester.Email, policy.ImageRef(original).String(), map[string]any{
			"op":    "transform",
			"error": err.Error(),
		}))
		return provider.Asset{}, err
	}
	return asset, nil
}

func (s *TransformService) discard(ctx context.Context, publicID string) {
	if err := s.provider.Delete(context.WithoutCancel(ctx), publicID); err != nil {
		slog.Warn("failed to delete transformed asset", "public_id", publicID, "error", err)
	}
}

func (s *TransformService) denied(requester model.User, ref policy.ResourceRef) {
	s.bus.Publish(event.New(event.TypeAccessDenied, requester.ID, requester.Email, ref.String(), nil))
}
