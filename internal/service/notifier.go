package service

import (
	"context"
	"log"

	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/realtime"
	"github.com/echowall/backend/internal/repositories"
)

// EventPublisher pushes live events to a recipient's connected sessions.
// Implementations must never block the caller beyond a short bound.
type EventPublisher interface {
	Publish(userID uint, event realtime.Event)
}

// CacheInvalidator evicts cached listings by glob pattern. Eviction
// failure degrades to bounded staleness, never to a caller-visible error.
type CacheInvalidator interface {
	Evict(ctx context.Context, patterns ...string)
}

// Notifier derives notification messages from successful interactions and
// fans out the corresponding live events. Invoked only after the primary
// relation write succeeded; its own failures are logged and suppressed.
type Notifier struct {
	messages  repositories.MessageRepository
	publisher EventPublisher
	cache     CacheInvalidator
}

func NewNotifier(messages repositories.MessageRepository, publisher EventPublisher, cache CacheInvalidator) *Notifier {
	return &Notifier{messages: messages, publisher: publisher, cache: cache}
}

// eventTypeForKind maps a message kind to its live event type. Collect has
// no dedicated event; the inbox ping below covers it.
func eventTypeForKind(kind string) string {
	switch kind {
	case models.KindLike:
		return realtime.EventLikeReceived
	case models.KindComment, models.KindReply:
		return realtime.EventCommentReceived
	case models.KindFollow:
		return realtime.EventFollowReceived
	default:
		return ""
	}
}

// InteractionOccurred records a message for the target and publishes the
// live events. No message or event is ever produced for a self-action.
func (n *Notifier) InteractionOccurred(ctx context.Context, kind string, fromID, targetID uint, postID *string) {
	if fromID == targetID {
		return
	}

	if eventType := eventTypeForKind(kind); eventType != "" && n.publisher != nil {
		event := realtime.NewEvent(eventType)
		event.FromUserID = fromID
		event.Kind = kind
		if postID != nil {
			event.PostID = *postID
		}
		n.publisher.Publish(targetID, event)
	}

	msg := &models.Message{
		TargetID:   targetID,
		Kind:       kind,
		FromID:     fromID,
		FromPostID: postID,
	}
	if err := n.messages.CreateMessage(msg); err != nil {
		log.Printf("notifier: message insert failed (kind=%s from=%d target=%d): %v", kind, fromID, targetID, err)
		return
	}

	if n.publisher != nil {
		event := realtime.NewEvent(realtime.EventMessageReceived)
		event.FromUserID = fromID
		event.MessageID = msg.ID
		event.Kind = kind
		if postID != nil {
			event.PostID = *postID
		}
		n.publisher.Publish(targetID, event)
	}

	if n.cache != nil {
		n.cache.Evict(ctx, "/api/v1/messages*")
	}
}

// InteractionUndone retracts the message written for a toggle-kind
// interaction. Only like and collect mirror their relation's lifecycle.
func (n *Notifier) InteractionUndone(ctx context.Context, kind string, fromID uint, postID string) {
	if kind != models.KindLike && kind != models.KindCollect {
		return
	}
	if err := n.messages.DeleteInteractionMessage(kind, fromID, postID); err != nil {
		log.Printf("notifier: message retract failed (kind=%s from=%d post=%s): %v", kind, fromID, postID, err)
		return
	}
	if n.cache != nil {
		n.cache.Evict(ctx, "/api/v1/messages*")
	}
}
