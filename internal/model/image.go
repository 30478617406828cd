package model

import (
	"fmt"
	"time"
)

const (
	MaxTagsPerImage = 5

	DefaultPageLimit = 10
	MinPageLimit     = 10
	MaxPageLimit     = 500
)

type Image struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublicID    string    `json:"-"`
	UserID      int64     `json:"user_id"`
	Tags        []Tag     `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpdateImageRequest struct {
	Description string `json:"description"`
}

// Page is a limit/offset window over a listing.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) Validate() error {
	if p.Limit < MinPageLimit || p.Limit > MaxPageLimit {
		return fmt.Errorf("%w: limit must be between %d and %d", ErrValidationFailed, MinPageLimit, MaxPageLimit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", ErrValidationFailed)
	}
	return nil
}
