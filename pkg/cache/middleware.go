package cache

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// HeaderStatus reports how the response was produced.
	HeaderStatus = "X-Cache-Status"
	// HeaderAge reports the served entry's age in seconds.
	HeaderAge = "X-Cache-Age"

	// headerRefresh marks an internal revalidation request so it skips the
	// cache lookup and only repopulates the entry.
	headerRefresh = "X-Cache-Refresh"

	statusHit   = "HIT"
	statusStale = "STALE"
	statusMiss  = "MISS"

	storeTimeout   = 2 * time.Second
	refreshTimeout = 10 * time.Second
)

// IdentityFunc extracts the authenticated user for key scoping. ok false
// means the request is anonymous.
type IdentityFunc func(c echo.Context) (userID uint, ok bool)

// Middleware serves GET responses through the store with
// stale-while-revalidate semantics. Fresh entries are served as HIT,
// entries past MaxAge but within the stale window are served as STALE
// while a single background refresh repopulates them, everything else is
// a MISS that populates the cache on the way out.
func Middleware(store *Store, policies *PolicyTable, identity IdentityFunc) echo.MiddlewareFunc {
	var inflight sync.Map

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}
			policy, ok := policies.Lookup(req.URL.Path)
			if !ok {
				return next(c)
			}

			key := cacheKey(req, identity, c)
			if req.Header.Get(headerRefresh) != "" {
				return capture(c, next, store, key, policy, "")
			}

			entry, err := store.Get(req.Context(), key)
			if err == nil {
				age := entry.Age(time.Now())
				switch {
				case age <= policy.MaxAge:
					store.hits.Add(1)
					return serve(c, entry, statusHit, age)
				case age <= policy.TTL():
					store.stale.Add(1)
					refresh(c.Echo(), req, key, &inflight)
					return serve(c, entry, statusStale, age)
				}
			} else if !errors.Is(err, ErrMiss) {
				log.Printf("cache: lookup failed for %s: %v", key, err)
			}

			store.misses.Add(1)
			return capture(c, next, store, key, policy, statusMiss)
		}
	}
}

// cacheKey builds the storage key: path, canonicalized query, and the
// authenticated user so one user's view never leaks to another.
func cacheKey(req *http.Request, identity IdentityFunc, c echo.Context) string {
	key := req.URL.Path
	if raw := req.URL.RawQuery; raw != "" {
		if q, err := url.ParseQuery(raw); err == nil {
			key += "?" + q.Encode()
		} else {
			key += "?" + raw
		}
	}
	if identity != nil {
		if userID, ok := identity(c); ok {
			key += ":user_" + strconv.FormatUint(uint64(userID), 10)
		}
	}
	return key
}

func serve(c echo.Context, entry *Entry, status string, age time.Duration) error {
	h := c.Response().Header()
	h.Set(HeaderStatus, status)
	h.Set(HeaderAge, strconv.Itoa(int(age.Seconds())))
	return c.Blob(entry.Status, entry.ContentType, entry.Body)
}

// capture runs the handler, stores a successful response, and forwards it
// unchanged. cacheStatus is empty for internal refresh requests, which
// carry no cache headers.
func capture(c echo.Context, next echo.HandlerFunc, store *Store, key string, policy Policy, cacheStatus string) error {
	if cacheStatus != "" {
		c.Response().Header().Set(HeaderStatus, cacheStatus)
	}
	recorder := &bodyRecorder{ResponseWriter: c.Response().Writer}
	c.Response().Writer = recorder

	if err := next(c); err != nil {
		return err
	}

	if c.Response().Status == http.StatusOK {
		entry := &Entry{
			Status:      c.Response().Status,
			ContentType: c.Response().Header().Get(echo.HeaderContentType),
			Body:        recorder.body.Bytes(),
			StoredAt:    time.Now(),
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := store.Set(ctx, key, entry, policy.TTL()); err != nil {
			log.Printf("cache: store failed for %s: %v", key, err)
		}
	}
	return nil
}

// refresh re-executes the request against the local handler chain in the
// background. At most one refresh per key runs at a time.
func refresh(e *echo.Echo, req *http.Request, key string, inflight *sync.Map) {
	if _, loaded := inflight.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	clone := req.Clone(context.Background())
	go func() {
		defer inflight.Delete(key)
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		clone = clone.WithContext(ctx)
		clone.Header.Set(headerRefresh, "1")
		e.ServeHTTP(&discardWriter{header: make(http.Header)}, clone)
	}()
}

// bodyRecorder tees the response body while it streams to the client.
type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// discardWriter satisfies http.ResponseWriter for refresh requests; the
// refreshed body is stored by the middleware, not returned to anyone.
type discardWriter struct {
	header http.Header
}

func (w *discardWriter) Header() http.Header         { return w.header }
func (w *discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (w *discardWriter) WriteHeader(int)             {}
