package service

import (
	"context"

	"atlantic-photo/internal/event"
	"atlantic-photo/internal/model"
	"atlantic-photo/internal/policy"
)

type TagService struct {
	tags   TagStore
	images ImageStore
	bus    event.Bus
}

func NewTagService(tags TagStore, images ImageStore, bus event.Bus) *TagService {
	return &TagService{tags: tags, images: images, bus: bus}
}

func (s *TagService) Get(ctx context.Context, id int64) (model.Tag, error) {
	return s.tags.FindByID(ctx, id)
}

// Create attaches the tag called req.Name to an image the requester may
// modify. Tags are shared by name, so an existing tag is reused.
func (s *TagService) Create(ctx context.Context, requester model.User, req model.CreateTagRequest) (model.Tag, error) {
	name, err := validateTagName(req.Name)
	if err != nil {
		return model.Tag{}, err
	}

	img, err := s.images.FindByID(ctx, req.ImageID)
	if err != nil {
		return model.Tag{}, err
	}

	ref := policy.ImageRef(img)
	if err := policy.Authorize(ref, requester); err != nil {
		s.bus.Publish(event.New(event.TypeAccessDenied, requester.ID, requester.Email, ref.String(), nil))
		return model.Tag{}, err
	}

	tag, err := s.tags.AttachToImage(ctx, img.ID, name, requester.ID, model.MaxTagsPerImage)
	if err != nil {
		return model.Tag{}, err
	}

	s.bus.Publish(event.New(event.TypeTagCreated, requester.ID, requester.Email, policy.TagRef(tag).String(), map[string]any{
		"name":     tag.Name,
		"image_id": img.ID,
	}))
	return tag, nil
}

func (s *TagService) Delete(ctx context.Context, requester model.User, id int64) error {
	tag, err := s.tags.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ref := policy.TagRef(tag)
	if err := policy.Authorize(ref, requester); err != nil {
		s.bus.Publish(event.New(event.TypeAccessDenied, requester.ID, requester.Email, ref.String(), nil))
		return err
	}

	if err := s.tags.Delete(ctx, id); err != nil {
		return err
	}

	s.bus.Publish(event.New(event.TypeTagDeleted, requester.ID, requester.Email, ref.String(), nil))
	return nil
}
