package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Outbound buffer per session. A session that cannot drain this many
	// events is considered slow and loses the overflow.
	sessionSendBuffer = 64

	channelPrefix  = "user:"
	channelPattern = "user:*"

	publishTimeout = time.Second
)

// envelope is the cross-instance wire format. Origin identifies the
// publishing hub so a subscriber can skip events it already delivered
// locally.
type envelope struct {
	Origin string `json:"origin"`
	UserID uint   `json:"user_id"`
	Event  Event  `json:"event"`
}

// Session is one websocket connection. A session delivers nothing until
// the client announces its identity.
type Session struct {
	ID     string
	UserID uint
	Send   chan []byte

	hub *Hub
}

// Hub tracks connected sessions and routes events to them. With a redis
// client attached, events published on one instance reach sessions held
// by every other instance through pub/sub.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	byUser   map[uint]map[*Session]struct{}

	origin string
	rdb    *redis.Client
}

// NewHub creates a hub. rdb may be nil for single-instance deployments;
// local delivery still works.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		byUser:   make(map[uint]map[*Session]struct{}),
		origin:   uuid.NewString(),
		rdb:      rdb,
	}
}

// Run subscribes to the cross-instance channel and relays events to local
// sessions until ctx is cancelled. No-op without a redis client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	pubsub := h.rdb.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("hub: bad envelope on %s: %v", msg.Channel, err)
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			payload, err := json.Marshal(env.Event)
			if err != nil {
				continue
			}
			h.deliverLocal(env.UserID, payload)
		}
	}
}

// Register adds a new, not-yet-identified session.
func (h *Hub) Register() *Session {
	s := &Session{
		ID:   uuid.NewString(),
		Send: make(chan []byte, sessionSendBuffer),
		hub:  h,
	}
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Announce binds a session to a user. Later announcements rebind; the
// previous identity stops receiving through this session.
func (h *Hub) Announce(s *Session, userID uint) {
	h.mu.Lock()
	if s.UserID != 0 {
		h.detachLocked(s)
	}
	s.UserID = userID
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[*Session]struct{})
	}
	h.byUser[userID][s] = struct{}{}
	first := len(h.byUser[userID]) == 1
	h.mu.Unlock()

	if first {
		event := NewEvent(EventPresenceOnline)
		event.UserID = userID
		h.broadcast(event, s)
	}
}

// Unregister removes a session and closes its send channel. The last
// session of a user going away announces the user offline.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	userID := s.UserID
	h.detachLocked(s)
	last := userID != 0 && len(h.byUser[userID]) == 0
	close(s.Send)
	h.mu.Unlock()

	if last {
		event := NewEvent(EventPresenceOffline)
		event.UserID = userID
		h.broadcast(event, nil)
	}
}

func (h *Hub) detachLocked(s *Session) {
	if s.UserID == 0 {
		return
	}
	if set, ok := h.byUser[s.UserID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.byUser, s.UserID)
		}
	}
}

// Publish sends an event to every session of userID, on this instance and
// on peers. Never blocks beyond the redis publish timeout.
func (h *Hub) Publish(userID uint, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: event marshal failed: %v", err)
		return
	}
	h.deliverLocal(userID, payload)

	if h.rdb == nil {
		return
	}
	env, err := json.Marshal(envelope{Origin: h.origin, UserID: userID, Event: event})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := h.rdb.Publish(ctx, channelKey(userID), env).Err(); err != nil {
		log.Printf("hub: redis publish failed for user %d: %v", userID, err)
	}
}

func (h *Hub) deliverLocal(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.byUser[userID] {
		select {
		case s.Send <- payload:
		default:
			log.Printf("hub: dropping event for slow session %s (user %d)", s.ID, userID)
		}
	}
}

// broadcast pushes an event to every identified local session except skip.
func (h *Hub) broadcast(event Event, skip *Session) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		if s == skip || s.UserID == 0 {
			continue
		}
		select {
		case s.Send <- payload:
		default:
		}
	}
}

// LocalSessions reports how many sessions this instance currently holds.
func (h *Hub) LocalSessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func channelKey(userID uint) string {
	return channelPrefix + strconv.FormatUint(uint64(userID), 10)
}
