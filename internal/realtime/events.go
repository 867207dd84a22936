package realtime

import "time"

// Server-to-client event types.
const (
	EventLikeReceived    = "like-received"
	EventCommentReceived = "comment-received"
	EventFollowReceived  = "follow-received"
	EventMessageReceived = "message-received"
	EventPostReceived    = "post-received"
	EventPresenceOnline  = "presence-online"
	EventPresenceOffline = "presence-offline"
)

// Event is a live notification pushed to connected sessions. Delivery is
// best-effort; the persisted message row is the durable fallback.
type Event struct {
	Type       string `json:"type"`
	FromUserID uint   `json:"from_user_id,omitempty"`
	UserID     uint   `json:"user_id,omitempty"`
	PostID     string `json:"post_id,omitempty"`
	CommentID  uint   `json:"comment_id,omitempty"`
	MessageID  uint   `json:"message_id,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// NewEvent creates an event stamped with the server time in milliseconds.
func NewEvent(eventType string) Event {
	return Event{Type: eventType, Timestamp: time.Now().UnixMilli()}
}
