package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"atlantic-photo/internal/model"
)

var roles = []model.Role{model.RoleAdmin, model.RoleModerator, model.RoleUser}

func TestCanAccess(t *testing.T) {
	for _, role := range roles {
		for _, owner := range []int64{1, 2, 3} {
			for _, requesterID := range []int64{1, 2, 3} {
				requester := model.User{ID: requesterID, Role: role}
				want := requesterID == owner || role == model.RoleAdmin
				assert.Equal(t, want, CanAccess(owner, requester),
					"owner=%d requester=%d role=%s", owner, requesterID, role)
			}
		}
	}
}

func TestCanAccessOwnerWithUserRole(t *testing.T) {
	assert.True(t, CanAccess(5, model.User{ID: 5, Role: model.RoleUser}))
}

func TestCanAccessModeratorIsNotOwner(t *testing.T) {
	assert.False(t, CanAccess(5, model.User{ID: 6, Role: model.RoleModerator}))
}

func TestCanModerate(t *testing.T) {
	tests := []struct {
		role model.Role
		want bool
	}{
		{model.RoleAdmin, true},
		{model.RoleModerator, true},
		{model.RoleUser, false},
		{model.Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, CanModerate(model.User{ID: 1, Role: tt.role}))
			assert.Equal(t, tt.want, CanListAll(model.User{ID: 1, Role: tt.role}))
		})
	}
}

func TestAuthorize(t *testing.T) {
	owner := model.User{ID: 1, Role: model.RoleUser}
	other := model.User{ID: 2, Role: model.RoleUser}
	admin := model.User{ID: 3, Role: model.RoleAdmin}

	refs := []ResourceRef{
		ImageRef(model.Image{ID: 10, UserID: 1}),
		TransformRef(model.TransformedPic{ID: 11, UserID: 1}),
		TagRef(model.Tag{ID: 12, UserID: 1}),
		CommentRef(model.Comment{ID: 13, UserID: 1}),
	}

	for _, ref := range refs {
		t.Run(string(ref.Kind), func(t *testing.T) {
			assert.NoError(t, Authorize(ref, owner))
			assert.NoError(t, Authorize(ref, admin))

			err := Authorize(ref, other)
			assert.ErrorIs(t, err, model.ErrForbidden)
			assert.Contains(t, err.Error(), ref.String())
		})
	}
}

func TestAuthorizeModeration(t *testing.T) {
	ref := CommentRef(model.Comment{ID: 1, UserID: 9})

	assert.NoError(t, AuthorizeModeration(ref, model.User{ID: 2, Role: model.RoleModerator}))
	assert.NoError(t, AuthorizeModeration(ref, model.User{ID: 2, Role: model.RoleAdmin}))
	assert.ErrorIs(t, AuthorizeModeration(ref, model.User{ID: 9, Role: model.RoleUser}), model.ErrForbidden)
}
