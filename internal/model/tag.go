package model

import "time"

const MaxTagNameLength = 25

type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateTagRequest struct {
	Name    string `json:"name"`
	ImageID int64  `json:"image_id"`
}
