package service

import (
	"context"
	"fmt"
	"log"

	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/repositories"
)

// InboxService reads and manages a user's notification messages.
type InboxService struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	posts    repositories.PostRepository
	cache    CacheInvalidator
}

func NewInboxService(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	posts repositories.PostRepository,
	cache CacheInvalidator,
) *InboxService {
	return &InboxService{messages: messages, users: users, posts: posts, cache: cache}
}

// renderText produces the one-line summary shown in the inbox. Unknown
// kinds fall back to a generic line rather than erroring the whole list.
func renderText(actorName, kind string) string {
	switch kind {
	case models.KindLike:
		return fmt.Sprintf("%s liked your post", actorName)
	case models.KindCollect:
		return fmt.Sprintf("%s collected your post", actorName)
	case models.KindComment:
		return fmt.Sprintf("%s commented on your post", actorName)
	case models.KindReply:
		return fmt.Sprintf("%s replied to your comment", actorName)
	case models.KindFollow:
		return fmt.Sprintf("%s started following you", actorName)
	default:
		return fmt.Sprintf("%s interacted with you", actorName)
	}
}

// List returns the user's inbox newest first, each message enriched with
// actor identity, the referenced post and a rendered summary line, plus
// the unread count. An actor or post deleted since the message was
// written degrades that entry, never the listing.
func (s *InboxService) List(ctx context.Context, targetID uint) ([]models.InboxMessage, int64, error) {
	rows, err := s.messages.GetByTargetID(targetID)
	if err != nil {
		return nil, 0, mapRepoError(err)
	}
	unread, err := s.messages.GetUnreadCount(targetID)
	if err != nil {
		return nil, 0, mapRepoError(err)
	}

	actorIDs := make([]uint, 0, len(rows))
	seen := make(map[uint]bool, len(rows))
	for _, m := range rows {
		if !seen[m.FromID] {
			seen[m.FromID] = true
			actorIDs = append(actorIDs, m.FromID)
		}
	}
	actors, err := s.users.GetUsersByIDs(actorIDs)
	if err != nil {
		return nil, 0, mapRepoError(err)
	}

	postCache := make(map[string]*models.Post)
	inbox := make([]models.InboxMessage, 0, len(rows))
	for _, m := range rows {
		entry := models.InboxMessage{Message: m}
		actorName := "Someone"
		if actor, ok := actors[m.FromID]; ok {
			entry.FromUser = actor.ToCompact()
			actorName = actor.Name
		}
		entry.Text = renderText(actorName, m.Kind)

		if m.FromPostID != nil {
			post, ok := postCache[*m.FromPostID]
			if !ok {
				post, err = s.posts.GetPostByID(ctx, *m.FromPostID)
				if err != nil {
					log.Printf("inbox: post lookup failed for message %d: %v", m.ID, err)
					post = nil
				}
				postCache[*m.FromPostID] = post
			}
			if post != nil {
				entry.PostContent = post.Content
				entry.PostImages = post.Images
			}
		}
		inbox = append(inbox, entry)
	}
	return inbox, unread, nil
}

// UnreadCount returns the number of unread messages for the user.
func (s *InboxService) UnreadCount(targetID uint) (int64, error) {
	count, err := s.messages.GetUnreadCount(targetID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	return count, nil
}

// MarkRead marks one of the user's messages read. Marking a message the
// user does not own reports not found, never touches the row.
func (s *InboxService) MarkRead(ctx context.Context, targetID, messageID uint) error {
	if err := s.messages.MarkAsRead(messageID, targetID); err != nil {
		return mapRepoError(err)
	}
	s.evict(ctx)
	return nil
}

// MarkAllRead marks every unread message of the user read.
func (s *InboxService) MarkAllRead(ctx context.Context, targetID uint) error {
	if err := s.messages.MarkAllAsRead(targetID); err != nil {
		return mapRepoError(err)
	}
	s.evict(ctx)
	return nil
}

// Delete removes one of the user's messages.
func (s *InboxService) Delete(ctx context.Context, targetID, messageID uint) error {
	if err := s.messages.DeleteMessage(messageID, targetID); err != nil {
		return mapRepoError(err)
	}
	s.evict(ctx)
	return nil
}

func (s *InboxService) evict(ctx context.Context) {
	if s.cache != nil {
		s.cache.Evict(ctx, "/api/v1/messages*")
	}
}
