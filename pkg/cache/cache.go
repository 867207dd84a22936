package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "swr:"

	evictScanCount = 200
)

// ErrMiss is returned when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Entry is a stored response snapshot. Age relative to StoredAt decides
// whether it is served fresh, stale, or not at all.
type Entry struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Stats are running counters for the admin endpoint.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Stale     uint64 `json:"stale"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Store is a redis-backed response cache. All failures degrade to a miss;
// redis being down slows reads, it never breaks them.
type Store struct {
	rdb *redis.Client

	hits      atomic.Uint64
	stale     atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Get fetches the entry stored under key, ErrMiss when absent.
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Set stores an entry under key for ttl.
func (s *Store) Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, keyPrefix+key, data, ttl).Err()
}

// Evict removes every entry whose key matches one of the glob patterns.
// Uses SCAN rather than KEYS so eviction never stalls redis.
func (s *Store) Evict(ctx context.Context, patterns ...string) {
	for _, pattern := range patterns {
		var cursor uint64
		for {
			keys, next, err := s.rdb.Scan(ctx, cursor, keyPrefix+pattern, evictScanCount).Result()
			if err != nil {
				log.Printf("cache: scan failed for pattern %q: %v", pattern, err)
				break
			}
			if len(keys) > 0 {
				if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
					log.Printf("cache: delete failed for pattern %q: %v", pattern, err)
				} else {
					s.evictions.Add(uint64(len(keys)))
				}
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}
}

// Entries counts the live cached entries.
func (s *Store) Entries(ctx context.Context) (int64, error) {
	var total int64
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, keyPrefix+"*", evictScanCount).Result()
		if err != nil {
			return 0, err
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// Stats returns a snapshot of the running counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Stale:     s.stale.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
}
