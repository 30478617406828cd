// Package cache holds short-lived snapshots of authenticated users keyed by
// token subject. Entries are never authoritative.
package cache

import (
	"context"

	"atlantic-photo/internal/model"
)

type IdentityCache interface {
	Get(ctx context.Context, subject string) (model.User, bool, error)
	Put(ctx context.Context, subject string, user model.User) error
	Delete(ctx context.Context, subject string) error
	Close() error
}

// snapshot strips the credential fields before a user is cached.
func snapshot(u model.User) model.User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u
}
