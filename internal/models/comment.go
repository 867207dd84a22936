package models

import "time"

// Comment represents a comment on a post. A comment with a parent is a
// reply; parent_user_id is the parent comment's author captured at write
// time, used for notification targeting. It is not re-resolved if the
// parent is later deleted.
type Comment struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	PostID       string    `json:"post_id" gorm:"index"` // MongoDB ObjectID as string
	UserID       uint      `json:"user_id" gorm:"index"`
	Content      string    `json:"content" gorm:"size:500"`
	ParentID     *uint     `json:"parent_id,omitempty"`
	ParentUserID *uint     `json:"parent_user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateCommentRequest defines the request body for creating a comment or reply
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// CommentView is a comment joined with its author's display fields.
type CommentView struct {
	Comment
	Author  UserCompact   `json:"author"`
	Replies []CommentView `json:"replies"`
}
