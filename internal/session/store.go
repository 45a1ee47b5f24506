package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bankbot/internal/cache"
	"bankbot/internal/convo"

	"github.com/redis/go-redis/v9"
)

// Store persists conversation contexts by session ID. Load returns nil and no
// error when the session does not exist.
type Store interface {
	Load(ctx context.Context, id string) (*convo.State, error)
	Save(ctx context.Context, id string, st *convo.State) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	state   *convo.State
	touched time.Time
}

// MemoryStore keeps contexts in process memory. Idle entries are removed by
// Sweep. Load and Save copy the state so callers never share a live record.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*memoryEntry
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*memoryEntry), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*convo.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok {
		st := *e.state
		return &st, nil
	}
	return nil, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, st *convo.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.items[id] = &memoryEntry{state: &cp, touched: s.now()}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Sweep drops sessions untouched for longer than idle and returns how many were removed.
func (s *MemoryStore) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	removed := 0
	for id, e := range s.items {
		if e.touched.Before(cutoff) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of held sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// RedisStore keeps contexts as JSON values whose TTL is refreshed on every save.
type RedisStore struct {
	cache  *cache.Redis
	prefix string
	ttl    time.Duration
}

func NewRedisStore(c *cache.Redis, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "bankbot:session:"
	}
	return &RedisStore{cache: c, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (*convo.State, error) {
	raw, err := s.cache.Client().Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var st convo.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, st *convo.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.cache.Client().Set(ctx, s.key(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Client().Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
