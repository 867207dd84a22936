package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func waitForEvent(t *testing.T, s *Session, wantType string) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case payload, ok := <-s.Send:
			if !ok {
				t.Fatal("send channel closed while waiting for event")
			}
			var event Event
			if err := json.Unmarshal(payload, &event); err != nil {
				t.Fatalf("bad payload %q: %v", payload, err)
			}
			if event.Type == wantType {
				return event
			}
		case <-deadline:
			t.Fatalf("no %s event within deadline", wantType)
		}
	}
}

func TestPublishDeliversToAnnouncedSession(t *testing.T) {
	hub := NewHub(nil)
	session := hub.Register()
	hub.Announce(session, 7)

	event := NewEvent(EventLikeReceived)
	event.FromUserID = 3
	hub.Publish(7, event)

	got := waitForEvent(t, session, EventLikeReceived)
	if got.FromUserID != 3 {
		t.Fatalf("from_user_id = %d, want 3", got.FromUserID)
	}
}

func TestPublishSkipsUnannouncedSession(t *testing.T) {
	hub := NewHub(nil)
	session := hub.Register()

	hub.Publish(7, NewEvent(EventLikeReceived))

	select {
	case payload := <-session.Send:
		t.Fatalf("unannounced session received %q", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishReachesAllSessionsOfUser(t *testing.T) {
	hub := NewHub(nil)
	first := hub.Register()
	second := hub.Register()
	hub.Announce(first, 7)
	hub.Announce(second, 7)

	hub.Publish(7, NewEvent(EventMessageReceived))

	waitForEvent(t, first, EventMessageReceived)
	waitForEvent(t, second, EventMessageReceived)
}

func TestSlowSessionDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(nil)
	session := hub.Register()
	hub.Announce(session, 7)

	done := make(chan struct{})
	go func() {
		for i := 0; i < sessionSendBuffer*2; i++ {
			hub.Publish(7, NewEvent(EventMessageReceived))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full session buffer")
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(nil)
	session := hub.Register()
	hub.Announce(session, 7)

	hub.Unregister(session)

	for {
		select {
		case _, ok := <-session.Send:
			if !ok {
				if hub.LocalSessions() != 0 {
					t.Fatalf("LocalSessions = %d, want 0", hub.LocalSessions())
				}
				return
			}
		case <-time.After(time.Second):
			t.Fatal("send channel not closed after unregister")
		}
	}
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	hub := NewHub(nil)
	session := hub.Register()
	hub.Announce(session, 7)

	hub.Unregister(session)
	hub.Unregister(session)
}

func TestRebindStopsOldIdentity(t *testing.T) {
	hub := NewHub(nil)
	session := hub.Register()
	hub.Announce(session, 7)
	hub.Announce(session, 8)

	hub.Publish(7, NewEvent(EventLikeReceived))
	select {
	case payload := <-session.Send:
		var event Event
		json.Unmarshal(payload, &event)
		if event.Type == EventLikeReceived {
			t.Fatal("session still receives for its previous identity")
		}
	case <-time.After(50 * time.Millisecond):
	}

	hub.Publish(8, NewEvent(EventLikeReceived))
	waitForEvent(t, session, EventLikeReceived)
}

func TestCrossInstanceDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer clientA.Close()
	defer clientB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA := NewHub(clientA)
	hubB := NewHub(clientB)
	go hubA.Run(ctx)
	go hubB.Run(ctx)

	// Give both subscriptions time to land before publishing.
	time.Sleep(100 * time.Millisecond)

	session := hubB.Register()
	hubB.Announce(session, 42)

	event := NewEvent(EventFollowReceived)
	event.FromUserID = 9
	hubA.Publish(42, event)

	got := waitForEvent(t, session, EventFollowReceived)
	if got.FromUserID != 9 {
		t.Fatalf("from_user_id = %d, want 9", got.FromUserID)
	}
}

func TestOwnOriginNotDeliveredTwice(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(client)
	go hub.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	session := hub.Register()
	hub.Announce(session, 42)

	hub.Publish(42, NewEvent(EventLikeReceived))
	waitForEvent(t, session, EventLikeReceived)

	// The pub/sub echo of our own publish must have been skipped.
	select {
	case payload := <-session.Send:
		var event Event
		json.Unmarshal(payload, &event)
		if event.Type == EventLikeReceived {
			t.Fatal("event delivered twice through the pub/sub echo")
		}
	case <-time.After(200 * time.Millisecond):
	}
}
