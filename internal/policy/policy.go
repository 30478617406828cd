// Package policy decides whether a requester may act on a resource. Every
// resource manager goes through these predicates; none inspects roles
// directly.
package policy

import (
	"fmt"

	"atlantic-photo/internal/model"
)

type Kind string

const (
	KindImage          Kind = "image"
	KindTransformedPic Kind = "transformed_pic"
	KindTag            Kind = "tag"
	KindComment        Kind = "comment"
)

// ResourceRef identifies a resource and its owner regardless of kind.
type ResourceRef struct {
	Kind    Kind
	ID      int64
	OwnerID int64
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

func ImageRef(img model.Image) ResourceRef {
	return ResourceRef{Kind: KindImage, ID: img.ID, OwnerID: img.UserID}
}

func TransformRef(pic model.TransformedPic) ResourceRef {
	return ResourceRef{Kind: KindTransformedPic, ID: pic.ID, OwnerID: pic.UserID}
}

func TagRef(tag model.Tag) ResourceRef {
	return ResourceRef{Kind: KindTag, ID: tag.ID, OwnerID: tag.UserID}
}

func CommentRef(c model.Comment) ResourceRef {
	return ResourceRef{Kind: KindComment, ID: c.ID, OwnerID: c.UserID}
}

// CanAccess is the owner-or-admin rule.
func CanAccess(ownerID int64, requester model.User) bool {
	return requester.ID == ownerID || requester.Role == model.RoleAdmin
}

// CanModerate is the moderator gate; ownership is irrelevant.
func CanModerate(requester model.User) bool {
	return requester.Role == model.RoleAdmin || requester.Role == model.RoleModerator
}

// CanListAll gates listings that span every user's resources.
func CanListAll(requester model.User) bool {
	return CanModerate(requester)
}

// Authorize applies CanAccess to ref and returns an error wrapping
// model.ErrForbidden on denial.
func Authorize(ref ResourceRef, requester model.User) error {
	if CanAccess(ref.OwnerID, requester) {
		return nil
	}
	return fmt.Errorf("%s: %w", ref, model.ErrForbidden)
}

// AuthorizeModeration applies CanModerate to ref.
func AuthorizeModeration(ref ResourceRef, requester model.User) error {
	if CanModerate(requester) {
		return nil
	}
	return fmt.Errorf("%s: moderation requires moderator or admin: %w", ref, model.ErrForbidden)
}
