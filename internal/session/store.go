// Package session implements the server-side session store. The cookie
// handed to browsers carries only an opaque uuid; the identity snapshot
// and the refresh token live here, which makes revocation a single
// Delete and keeps JWTs out of cookies entirely.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/collabus/transit-admin/internal/model"
)

// CookieName is the HTTP cookie carrying the opaque session id.
const CookieName = "collabus_session"

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Snapshot is the denormalized identity cached for a signed-in client.
// It is not the source of truth; the users table is. The refresh token
// is kept server-side so sign-out can revoke it without client help.
type Snapshot struct {
	Identity     model.Identity `json:"identity"`
	RefreshToken string         `json:"refreshToken"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Store creates, resolves and destroys sessions.
type Store interface {
	Create(ctx context.Context, snap Snapshot) (string, error)
	Get(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions in Redis under "sess:<uuid>" with a TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string { return "sess:" + id }

// Create stores the snapshot and returns the new opaque session id.
func (s *RedisStore) Create(ctx context.Context, snap Snapshot) (string, error) {
	snap.CreatedAt = time.Now().UTC()
	body, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKey(id), body, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Get resolves a session id to its snapshot.
func (s *RedisStore) Get(ctx context.Context, id string) (Snapshot, error) {
	body, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Delete destroys a session. Deleting an unknown id is a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

// MemoryStore is the in-process fallback used when Redis is unreachable
// at startup, and by tests. Sessions do not survive a restart and are
// not shared between instances.
type MemoryStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[string]memEntry
}

type memEntry struct {
	snap Snapshot
	exp  time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, data: make(map[string]memEntry)}
}

func (s *MemoryStore) Create(_ context.Context, snap Snapshot) (string, error) {
	snap.CreatedAt = time.Now().UTC()
	id := uuid.NewString()
	s.mu.Lock()
	s.data[id] = memEntry{snap: snap, exp: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Snapshot, error) {
	s.mu.RLock()
	e, ok := s.data[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.exp) {
		return Snapshot{}, ErrNotFound
	}
	return e.snap, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}
