package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/echowall/backend/internal/models"
	"github.com/echowall/backend/internal/realtime"
	"github.com/echowall/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes implementing the repository interfaces. They mirror the
// store semantics the services depend on: toggle flips, conflict-ignore
// inserts, ownership-scoped updates.

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) seed(authorID uint, content string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	post := &models.Post{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	r.posts[post.ID.Hex()] = post
	return post.ID.Hex()
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	r.posts[post.ID.Hex()] = post
	return nil
}

func (r *fakePostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) GetPostsByAuthorID(_ context.Context, authorID uint, _, _ int64) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []models.Post
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) GetAllPosts(_ context.Context, _, _ int64) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []models.Post
	for _, p := range r.posts {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (r *fakePostRepo) GetHotPosts(_ context.Context, _, _ int64) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []models.Post
	for _, p := range r.posts {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].LikesCount != posts[j].LikesCount {
			return posts[i].LikesCount > posts[j].LikesCount
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (r *fakePostRepo) CountPosts(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.posts)), nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) IncrementLikesCount(_ context.Context, postID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[postID]; ok {
		post.LikesCount += delta
	}
	return nil
}

func (r *fakePostRepo) IncrementCommentsCount(_ context.Context, postID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[postID]; ok {
		post.CommentsCount += delta
	}
	return nil
}

type pairKey struct {
	postID string
	userID uint
}

type fakeLikeRepo struct {
	mu    sync.Mutex
	likes map[pairKey]bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: make(map[pairKey]bool)}
}

func (r *fakeLikeRepo) Toggle(postID string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{postID, userID}
	if r.likes[key] {
		delete(r.likes, key)
		return false, nil
	}
	r.likes[key] = true
	return true, nil
}

func (r *fakeLikeRepo) HasUserLikedPost(postID string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.likes[pairKey{postID, userID}], nil
}

func (r *fakeLikeRepo) GetLikesCountByPostID(postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for key := range r.likes {
		if key.postID == postID {
			count++
		}
	}
	return count, nil
}

func (r *fakeLikeRepo) GetLikerIDsByPostID(postID string) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint
	for key := range r.likes {
		if key.postID == postID {
			ids = append(ids, key.userID)
		}
	}
	return ids, nil
}

type fakeCollectRepo struct {
	mu       sync.Mutex
	collects map[pairKey]time.Time
}

func newFakeCollectRepo() *fakeCollectRepo {
	return &fakeCollectRepo{collects: make(map[pairKey]time.Time)}
}

func (r *fakeCollectRepo) Toggle(postID string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{postID, userID}
	if _, ok := r.collects[key]; ok {
		delete(r.collects, key)
		return false, nil
	}
	r.collects[key] = time.Now()
	return true, nil
}

func (r *fakeCollectRepo) HasUserCollectedPost(postID string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.collects[pairKey{postID, userID}]
	return ok, nil
}

func (r *fakeCollectRepo) GetCollectsByUser(userID uint) ([]models.Collect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var collects []models.Collect
	for key, at := range r.collects {
		if key.userID == userID {
			collects = append(collects, models.Collect{PostID: key.postID, UserID: key.userID, CreatedAt: at})
		}
	}
	return collects, nil
}

type followKey struct {
	follower  uint
	following uint
}

type fakeFollowRepo struct {
	mu      sync.Mutex
	follows map[followKey]bool
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{follows: make(map[followKey]bool)}
}

func (r *fakeFollowRepo) CreateFollow(followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := followKey{followerID, followingID}
	if r.follows[key] {
		return false, nil
	}
	r.follows[key] = true
	return true, nil
}

func (r *fakeFollowRepo) DeleteFollow(followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := followKey{followerID, followingID}
	if !r.follows[key] {
		return false, nil
	}
	delete(r.follows, key)
	return true, nil
}

func (r *fakeFollowRepo) IsFollowing(followerID, followingID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.follows[followKey{followerID, followingID}], nil
}

func (r *fakeFollowRepo) GetFollowersCount(userID uint) (int64, error) {
	ids, _ := r.GetFollowerIDs(userID)
	return int64(len(ids)), nil
}

func (r *fakeFollowRepo) GetFollowingCount(userID uint) (int64, error) {
	ids, _ := r.GetFollowingIDs(userID)
	return int64(len(ids)), nil
}

func (r *fakeFollowRepo) GetFollowerIDs(userID uint) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint
	for key := range r.follows {
		if key.following == userID {
			ids = append(ids, key.follower)
		}
	}
	return ids, nil
}

func (r *fakeFollowRepo) GetFollowingIDs(userID uint) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint
	for key := range r.follows {
		if key.follower == userID {
			ids = append(ids, key.following)
		}
	}
	return ids, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	nextID   uint
	comments map[uint]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[uint]*models.Comment)}
}

func (r *fakeCommentRepo) CreateComment(comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	copied := *comment
	r.comments[comment.ID] = &copied
	return nil
}

func (r *fakeCommentRepo) GetCommentByID(id uint) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *comment
	return &copied, nil
}

func (r *fakeCommentRepo) GetCommentsByPostID(postID string) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var comments []models.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID > comments[j].ID })
	return comments, nil
}

func (r *fakeCommentRepo) DeleteComment(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetUsersByIDs(ids []uint) (map[uint]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[uint]models.User, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			result[id] = user
		}
	}
	return result, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   uint
	messages map[uint]*models.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uint]*models.Message)}
}

func (r *fakeMessageRepo) CreateMessage(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	message.ID = r.nextID
	message.CreatedAt = time.Now()
	copied := *message
	r.messages[message.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) DeleteInteractionMessage(kind string, fromID uint, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.messages {
		if m.Kind == kind && m.FromID == fromID && m.FromPostID != nil && *m.FromPostID == postID {
			delete(r.messages, id)
		}
	}
	return nil
}

func (r *fakeMessageRepo) GetByTargetID(targetID uint) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var messages []models.Message
	for _, m := range r.messages {
		if m.TargetID == targetID && m.FromID != targetID {
			messages = append(messages, *m)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID > messages[j].ID })
	return messages, nil
}

func (r *fakeMessageRepo) GetUnreadCount(targetID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.messages {
		if m.TargetID == targetID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) MarkAsRead(messageID, targetID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[messageID]
	if !ok || m.TargetID != targetID {
		return repositories.ErrNotFound
	}
	m.IsRead = true
	return nil
}

func (r *fakeMessageRepo) MarkAllAsRead(targetID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.TargetID == targetID {
			m.IsRead = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) DeleteMessage(messageID, targetID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[messageID]
	if !ok || m.TargetID != targetID {
		return repositories.ErrNotFound
	}
	delete(r.messages, messageID)
	return nil
}

// recordingPublisher captures published events per recipient.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[uint][]realtime.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[uint][]realtime.Event)}
}

func (p *recordingPublisher) Publish(userID uint, event realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event)
}

func (p *recordingPublisher) eventsFor(userID uint) []realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]realtime.Event(nil), p.events[userID]...)
}

// recordingCache captures eviction patterns.
type recordingCache struct {
	mu       sync.Mutex
	patterns []string
}

func (c *recordingCache) Evict(_ context.Context, patterns ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, patterns...)
}

// env bundles a fully wired service stack over the fakes.
type env struct {
	posts     *fakePostRepo
	likes     *fakeLikeRepo
	collects  *fakeCollectRepo
	follows   *fakeFollowRepo
	comments  *fakeCommentRepo
	users     *fakeUserRepo
	messages  *fakeMessageRepo
	publisher *recordingPublisher
	cache     *recordingCache

	interactions *InteractionService
	inbox        *InboxService
}

func newEnv(users ...models.User) *env {
	e := &env{
		posts:     newFakePostRepo(),
		likes:     newFakeLikeRepo(),
		collects:  newFakeCollectRepo(),
		follows:   newFakeFollowRepo(),
		comments:  newFakeCommentRepo(),
		users:     newFakeUserRepo(users...),
		messages:  newFakeMessageRepo(),
		publisher: newRecordingPublisher(),
		cache:     &recordingCache{},
	}
	notifier := NewNotifier(e.messages, e.publisher, e.cache)
	e.interactions = NewInteractionService(e.posts, e.likes, e.collects, e.follows, e.comments, e.users, notifier, e.cache)
	e.inbox = NewInboxService(e.messages, e.users, e.posts, e.cache)
	return e
}
