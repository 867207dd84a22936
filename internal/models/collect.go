package models

import "time"

// Collect represents a bookmarked post. Same toggle-set semantics as Like.
type Collect struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"index;uniqueIndex:idx_post_user_collect"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_post_user_collect"`
	CreatedAt time.Time `json:"created_at"`
}
