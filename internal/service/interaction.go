package service

import (
	"context"
	"log"

	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/realtime"
	"github.com/echowall/backend/internal/repositories"
)

// Toggle states returned to the caller.
const (
	StateOn  = "on"
	StateOff = "off"
)

// InteractionService is the interaction engine: toggleable social actions
// and the comment/reply tree. Every mutation that succeeds invalidates the
// listings it can reach; notification and live delivery are delegated to
// the Notifier and are never allowed to fail the interaction itself.
type InteractionService struct {
	posts    repositories.PostRepository
	likes    repositories.LikeRepository
	collects repositories.CollectRepository
	follows  repositories.FollowRepository
	comments repositories.CommentRepository
	users    repositories.UserRepository
	notifier *Notifier
	cache    CacheInvalidator
}

func NewInteractionService(
	posts repositories.PostRepository,
	likes repositories.LikeRepository,
	collects repositories.CollectRepository,
	follows repositories.FollowRepository,
	comments repositories.CommentRepository,
	users repositories.UserRepository,
	notifier *Notifier,
	cache CacheInvalidator,
) *InteractionService {
	return &InteractionService{
		posts:    posts,
		likes:    likes,
		collects: collects,
		follows:  follows,
		comments: comments,
		users:    users,
		notifier: notifier,
		cache:    cache,
	}
}

func (s *InteractionService) evict(ctx context.Context, patterns ...string) {
	if s.cache != nil {
		s.cache.Evict(ctx, patterns...)
	}
}

// ToggleLike flips the like relation for (actor, post). Calling twice
// restores the pre-call state, including the notification side effect.
func (s *InteractionService) ToggleLike(ctx context.Context, actorID uint, postID string) (string, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return "", mapRepoError(err)
	}

	liked, err := s.likes.Toggle(postID, actorID)
	if err != nil {
		return "", mapRepoError(err)
	}

	delta := 1
	if !liked {
		delta = -1
	}
	if err := s.posts.IncrementLikesCount(ctx, postID, delta); err != nil {
		log.Printf("interaction: likes_count update failed for post %s: %v", postID, err)
	}

	if liked {
		s.notifier.InteractionOccurred(ctx, models.KindLike, actorID, post.AuthorID, &postID)
	} else {
		s.notifier.InteractionUndone(ctx, models.KindLike, actorID, postID)
	}

	s.evict(ctx, "/api/v1/posts*")
	if liked {
		return StateOn, nil
	}
	return StateOff, nil
}

// ToggleCollect flips the bookmark relation for (actor, post).
func (s *InteractionService) ToggleCollect(ctx context.Context, actorID uint, postID string) (string, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return "", mapRepoError(err)
	}

	collected, err := s.collects.Toggle(postID, actorID)
	if err != nil {
		return "", mapRepoError(err)
	}

	if collected {
		s.notifier.InteractionOccurred(ctx, models.KindCollect, actorID, post.AuthorID, &postID)
	} else {
		s.notifier.InteractionUndone(ctx, models.KindCollect, actorID, postID)
	}

	s.evict(ctx, "/api/v1/posts*", "/api/v1/collects*")
	if collected {
		return StateOn, nil
	}
	return StateOff, nil
}

// Follow makes follower follow followee. A pre-existing relation is not an
// error; the notification fires only when this call changed state.
func (s *InteractionService) Follow(ctx context.Context, followerID, followeeID uint) (string, error) {
	if followerID == followeeID {
		return "", ErrInvalidArgument
	}
	if _, err := s.users.GetUserByID(followeeID); err != nil {
		return "", mapRepoError(err)
	}

	added, err := s.follows.CreateFollow(followerID, followeeID)
	if err != nil {
		return "", mapRepoError(err)
	}
	if added {
		s.notifier.InteractionOccurred(ctx, models.KindFollow, followerID, followeeID, nil)
	}

	s.evict(ctx, "/api/v1/users*")
	return StateOn, nil
}

// Unfollow removes the relation. Follow notifications are not retracted.
func (s *InteractionService) Unfollow(ctx context.Context, followerID, followeeID uint) (string, error) {
	if followerID == followeeID {
		return "", ErrInvalidArgument
	}
	if _, err := s.follows.DeleteFollow(followerID, followeeID); err != nil {
		return "", mapRepoError(err)
	}

	s.evict(ctx, "/api/v1/users*")
	return StateOff, nil
}

// AddComment appends a comment or reply. A reply notifies the parent
// comment's author, captured now; a top-level comment notifies the post's
// author.
func (s *InteractionService) AddComment(ctx context.Context, actorID uint, postID, content string, parentID *uint) (*models.CommentView, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	kind := models.KindComment
	targetID := post.AuthorID
	var parentUserID *uint
	if parentID != nil {
		parent, err := s.comments.GetCommentByID(*parentID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		kind = models.KindReply
		targetID = parent.UserID
		parentUserID = &parent.UserID
	}

	comment := &models.Comment{
		PostID:       postID,
		UserID:       actorID,
		Content:      content,
		ParentID:     parentID,
		ParentUserID: parentUserID,
	}
	if err := s.comments.CreateComment(comment); err != nil {
		return nil, mapRepoError(err)
	}

	if err := s.posts.IncrementCommentsCount(ctx, postID, 1); err != nil {
		log.Printf("interaction: comments_count update failed for post %s: %v", postID, err)
	}

	s.notifier.InteractionOccurred(ctx, kind, actorID, targetID, &postID)
	s.evict(ctx, "/api/v1/posts*")

	view := &models.CommentView{Comment: *comment, Replies: []models.CommentView{}}
	if actor, err := s.users.GetUserByID(actorID); err == nil {
		view.Author = actor.ToCompact()
	}
	return view, nil
}

// DeleteComment removes a comment owned by the actor. Earlier comment or
// reply notifications stay behind.
func (s *InteractionService) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.comments.GetCommentByID(commentID)
	if err != nil {
		return mapRepoError(err)
	}
	if comment.UserID != actorID {
		return ErrForbidden
	}
	if err := s.comments.DeleteComment(commentID); err != nil {
		return mapRepoError(err)
	}
	if err := s.posts.IncrementCommentsCount(ctx, comment.PostID, -1); err != nil {
		log.Printf("interaction: comments_count update failed for post %s: %v", comment.PostID, err)
	}
	s.evict(ctx, "/api/v1/posts*")
	return nil
}

// ListComments returns a post's comments as a one-level tree: top-level
// comments newest first, replies nested under their parents.
func (s *InteractionService) ListComments(ctx context.Context, postID string) ([]models.CommentView, error) {
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, mapRepoError(err)
	}
	comments, err := s.comments.GetCommentsByPostID(postID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.UserID)
	}
	authors, err := s.users.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, mapRepoError(err)
	}

	views := make(map[uint]*models.CommentView, len(comments))
	order := make([]uint, 0, len(comments))
	for _, c := range comments {
		v := &models.CommentView{Comment: c, Replies: []models.CommentView{}}
		if author, ok := authors[c.UserID]; ok {
			v.Author = author.ToCompact()
		}
		views[c.ID] = v
		if c.ParentID == nil {
			order = append(order, c.ID)
		}
	}
	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if parent, ok := views[*c.ParentID]; ok {
			parent.Replies = append(parent.Replies, *views[c.ID])
		}
	}

	tree := make([]models.CommentView, 0, len(order))
	for _, id := range order {
		tree = append(tree, *views[id])
	}
	return tree, nil
}

// CreatePost publishes a post and broadcasts it live to the author's
// followers. The broadcast produces no message rows.
func (s *InteractionService) CreatePost(ctx context.Context, authorID uint, content string, images []string) (*models.Post, error) {
	post := &models.Post{AuthorID: authorID, Content: content, Images: images}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, mapRepoError(err)
	}

	if s.notifier != nil && s.notifier.publisher != nil {
		followerIDs, err := s.follows.GetFollowerIDs(authorID)
		if err != nil {
			log.Printf("interaction: follower lookup failed for post broadcast: %v", err)
		}
		for _, id := range followerIDs {
			event := realtime.NewEvent(realtime.EventPostReceived)
			event.FromUserID = authorID
			event.PostID = post.ID.Hex()
			s.notifier.publisher.Publish(id, event)
		}
	}

	s.evict(ctx, "/api/v1/posts*", "/api/v1/users*")
	return post, nil
}

// DeletePost removes a post owned by the actor.
func (s *InteractionService) DeletePost(ctx context.Context, actorID uint, postID string) error {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return mapRepoError(err)
	}
	if post.AuthorID != actorID {
		return ErrForbidden
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return mapRepoError(err)
	}
	s.evict(ctx, "/api/v1/posts*", "/api/v1/users*")
	return nil
}
