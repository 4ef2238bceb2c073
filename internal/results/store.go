package results

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-assistant/internal/model"
)

// StoreType names a Store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

var (
	ErrInvalidStoreType = errors.New("invalid show store type")
	ErrInvalidConfig    = errors.New("invalid show store configuration")
)

// Store keeps selected show records under generated keys so the detail and
// booking views can look them up.  Entries expire; a reload after expiry
// lands on the not-found page, which is the expected outcome.
type Store interface {
	// Put saves s and returns its new key.
	Put(ctx context.Context, s model.ShowResult) (string, error)
	// Get returns the record for key; ok is false when unknown or expired.
	Get(ctx context.Context, key string) (model.ShowResult, bool, error)
	Close() error
}

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
	now         func() time.Time
}

// WithRedisClient sets the client used by the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithTTL sets how long entries live.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.ttl = ttl }
}

// withClock lets tests move time for the memory driver.
func withClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) { c.now = now }
}

// NewStore returns a Store of the given type.  The redis driver requires
// WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{ttl: 30 * time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ttl <= 0 {
		cfg.ttl = 30 * time.Minute
	}
	switch storeType {
	case StoreTypeMemory, "":
		return &memoryStore{entries: make(map[string]memoryEntry), ttl: cfg.ttl, now: cfg.now}, nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{client: cfg.redisClient, ttl: cfg.ttl}, nil
	default:
		return nil, ErrInvalidStoreType
	}
}

type memoryEntry struct {
	show    model.ShowResult
	expires time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func (s *memoryStore) Put(ctx context.Context, show model.ShowResult) (string, error) {
	key := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	// sweep on write; the map only grows with new result sets
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{show: show, expires: now.Add(s.ttl)}
	return key, nil
}

func (s *memoryStore) Get(ctx context.Context, key string) (model.ShowResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return model.ShowResult{}, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return model.ShowResult{}, false, nil
	}
	return e.show, true, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
	return nil
}

// showKeyPrefix namespaces show records in Redis.
const showKeyPrefix = "show:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) Put(ctx context.Context, show model.ShowResult) (string, error) {
	key := uuid.NewString()
	val, err := json.Marshal(show)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, showKeyPrefix+key, val, s.ttl).Err(); err != nil {
		return "", err
	}
	return key, nil
}

// Get refreshes the entry's TTL on every read, so a show being looked at
// does not expire mid-booking.
func (s *redisStore) Get(ctx context.Context, key string) (model.ShowResult, bool, error) {
	val, err := s.client.Get(ctx, showKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ShowResult{}, false, nil
	}
	if err != nil {
		return model.ShowResult{}, false, err
	}
	var show model.ShowResult
	if err := json.Unmarshal(val, &show); err != nil {
		return model.ShowResult{}, false, err
	}
	_ = s.client.Expire(ctx, showKeyPrefix+key, s.ttl).Err()
	return show, true, nil
}

// Close is a no-op: the client is shared and owned by the caller.
func (s *redisStore) Close() error { return nil }

// Index stores every record of list and returns their keys by index.
func Index(ctx context.Context, st Store, list []model.ShowResult) ([]string, error) {
	keys := make([]string, len(list))
	for i, s := range list {
		k, err := st.Put(ctx, s)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}
