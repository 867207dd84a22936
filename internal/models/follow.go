package models

import "time"

// Follow represents a follow relationship, unique per ordered pair.
// Follower and following counts are derived from this relation on read;
// there is no denormalized list on the user row.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}
