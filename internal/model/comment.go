package model

import "time"

const MaxCommentLength = 255

type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	UserID    int64     `json:"user_id"`
	ImageID   int64     `json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CommentRequest struct {
	Content string `json:"content"`
	ImageID int64  `json:"image_id,omitempty"`
}
