package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func testApp(t *testing.T) (*echo.Echo, *Store, *atomic.Int64) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewStore(client)
	table := NewPolicyTable(map[string]Policy{
		"/api/v1/posts": {MaxAge: time.Minute, StaleWhileRevalidate: 2 * time.Minute},
	})

	var hits atomic.Int64
	e := echo.New()
	g := e.Group("/api/v1")
	g.Use(Middleware(store, table, func(echo.Context) (uint, bool) { return 1, true }))
	g.GET("/posts", func(c echo.Context) error {
		hits.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"n": hits.Load()})
	})
	g.POST("/posts", func(c echo.Context) error {
		hits.Add(1)
		return c.JSON(http.StatusCreated, echo.Map{})
	})
	return e, store, &hits
}

func doGet(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMissThenHit(t *testing.T) {
	e, _, hits := testApp(t)

	first := doGet(e, "/api/v1/posts")
	if got := first.Header().Get(HeaderStatus); got != statusMiss {
		t.Fatalf("first status = %q, want MISS", got)
	}

	second := doGet(e, "/api/v1/posts")
	if got := second.Header().Get(HeaderStatus); got != statusHit {
		t.Fatalf("second status = %q, want HIT", got)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("hit body %q differs from original %q", second.Body.String(), first.Body.String())
	}
	if hits.Load() != 1 {
		t.Fatalf("handler ran %d times, want 1", hits.Load())
	}
}

func TestStaleServesOldBodyAndRefreshes(t *testing.T) {
	e, store, hits := testApp(t)
	ctx := context.Background()

	first := doGet(e, "/api/v1/posts")

	// Age the entry past MaxAge but inside the stale window.
	key := "/api/v1/posts:user_1"
	entry, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	entry.StoredAt = time.Now().Add(-90 * time.Second)
	if err := store.Set(ctx, key, entry, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	stale := doGet(e, "/api/v1/posts")
	if got := stale.Header().Get(HeaderStatus); got != statusStale {
		t.Fatalf("status = %q, want STALE", got)
	}
	if stale.Body.String() != first.Body.String() {
		t.Fatal("stale response must serve the cached body")
	}
	if age := stale.Header().Get(HeaderAge); age == "" || age == "0" {
		t.Fatalf("age header = %q, want the entry's age", age)
	}

	// The background refresh re-runs the handler and freshens the entry.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hits.Load() == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if hits.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2 after refresh", hits.Load())
	}

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entry, err = store.Get(ctx, key)
		if err == nil && time.Since(entry.StoredAt) < time.Minute {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("entry was not refreshed in the background")
}

func TestExpiredEntryIsMiss(t *testing.T) {
	e, store, _ := testApp(t)
	ctx := context.Background()

	doGet(e, "/api/v1/posts")

	key := "/api/v1/posts:user_1"
	entry, _ := store.Get(ctx, key)
	entry.StoredAt = time.Now().Add(-time.Hour)
	store.Set(ctx, key, entry, time.Hour)

	rec := doGet(e, "/api/v1/posts")
	if got := rec.Header().Get(HeaderStatus); got != statusMiss {
		t.Fatalf("status = %q, want MISS past the stale window", got)
	}
}

func TestMutationsBypassCache(t *testing.T) {
	e, _, hits := testApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderStatus); got != "" {
		t.Fatalf("POST carried cache status %q", got)
	}
	if hits.Load() != 1 {
		t.Fatalf("handler ran %d times, want 1", hits.Load())
	}
}

func TestQueryStringsGetDistinctEntries(t *testing.T) {
	e, _, hits := testApp(t)

	doGet(e, "/api/v1/posts?page=1")
	doGet(e, "/api/v1/posts?page=2")
	if hits.Load() != 2 {
		t.Fatalf("handler ran %d times, want 2 for distinct queries", hits.Load())
	}

	// Parameter order must not split the entry.
	doGet(e, "/api/v1/posts?page=1&page_size=10")
	doGet(e, "/api/v1/posts?page_size=10&page=1")
	if hits.Load() != 3 {
		t.Fatalf("handler ran %d times, want 3", hits.Load())
	}
}
