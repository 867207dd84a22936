package models

import "time"

// Message kinds. A closed enum: the inbox renderer keeps a generic
// fallback but nothing this service writes should ever hit it.
const (
	KindLike    = "like"
	KindCollect = "collect"
	KindComment = "comment"
	KindReply   = "reply"
	KindFollow  = "follow"
)

// Message represents a persisted notification. Like/collect messages are
// deleted when the interaction is toggled off; comment, reply and follow
// messages are never retracted.
type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	TargetID   uint      `json:"target_id" gorm:"index"`
	Kind       string    `json:"kind" gorm:"size:20;index"`
	FromID     uint      `json:"from_id" gorm:"index"`
	FromPostID *string   `json:"from_post_id,omitempty"`
	IsRead     bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// InboxMessage is a message enriched for display: actor fields, the
// referenced post (when any) and a rendered one-line summary.
type InboxMessage struct {
	Message
	Text        string      `json:"text"`
	FromUser    UserCompact `json:"from_user"`
	PostContent string      `json:"post_content,omitempty"`
	PostImages  []string    `json:"post_images,omitempty"`
}
