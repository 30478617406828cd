package service

import (
	"context"
	"time"

	"atlantic-photo/internal/event"
	"atlantic-photo/internal/model"
	"atlantic-photo/internal/policy"
)

type CommentService struct {
	comments CommentStore
	images   ImageStore
	bus      event.Bus
	now      func() time.Time
}

func NewCommentService(comments CommentStore, images ImageStore, bus event.Bus) *CommentService {
	return &CommentService{comments: comments, images: images, bus: bus, now: time.Now}
}

// Get returns a comment to its author and to anyone who may read the
// image's comment thread.
func (s *CommentService) Get(ctx context.Context, requester model.User, id int64) (model.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}
	if c.UserID == requester.ID {
		return c, nil
	}

	if err := s.authorizeThread(ctx, requester, c.ImageID); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

func (s *CommentService) ListByImage(ctx context.Context, requester model.User, imageID int64) ([]model.Comment, error) {
	if err := s.authorizeThread(ctx, requester, imageID); err != nil {
		return nil, err
	}
	return s.comments.ListByImage(ctx, imageID)
}

// Create adds a comment to any existing image. Commenting is open to every
// authenticated user.
func (s *CommentService) Create(ctx context.Context, requester model.User, imageID int64, content string) (model.Comment, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return model.Comment{}, err
	}

	if _, err := s.images.FindByID(ctx, imageID); err != nil {
		return model.Comment{}, err
	}

	c, err := s.comments.Create(ctx, model.Comment{Content: content, UserID: requester.ID, ImageID: imageID})
	if err != nil {
		return model.Comment{}, err
	}

	s.bus.Publish(event.New(event.TypeCommentCreated, requester.ID, requester.Email, policy.CommentRef(c).String(), nil))
	return c, nil
}

func (s *CommentService) Update(ctx context.Context, requester model.User, id int64, content string) (model.Comment, error) {
	content, err := validateCommentContent(content)
	if err != nil {
		return model.Comment{}, err
	}

	existing, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}

	ref := policy.CommentRef(existing)
	if err := policy.Authorize(ref, requester); err != nil {
		s.bus.Publish(event.New(event.TypeAccessDenied, requester.ID, requester.Email, ref.String(), nil))
		return model.Comment{}, err
	}

	updated, err := s.comments.UpdateContent(ctx, id, content, s.now().UTC())
	if err != nil {
		return model.Comment{}, err
	}

	s.bus.Publish(event.New(event.TypeCommentUpdated, requester.ID, requester.Email, ref.String(), nil))
	return updated, nil
}

// Delete is a moderation action: only moderators and admins may remove
// comments, including their own.
func (s *CommentService) Delete(ctx context.Context, requester model.User, id int64) error {
	existing, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ref := policy.CommentRef(existing)
	if err := policy.AuthorizeModeration(ref, requester); err != nil {
		s.bus.Publish(event.New(event.TypeAccessDenied, requester.ID, requester.Email, ref.String(), nil))
		return err
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}

	s.bus.Publish(event.New(event.TypeCommentDeleted, requester.ID, requester.Email, ref.String(), nil))
	return nil
}

// authorizeThread admits the image owner, admins and moderators to the
// comments under an image.
func (s *CommentService) authorizeThread(ctx context.Context, requester model.User, imageID int64) error {
	img, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return err
	}
	if policy.CanModerate(requester) {
		return nil
	}

	ref := policy.ImageRef(img)
	if err := policy.Authorize(ref, requester); err != nil {
		s.bus.Publish(event.New(event.TypeAccessDenied, requester.ID, requester.Email, ref.String(), nil))
		return err
	}
	return nil
}
