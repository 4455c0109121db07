package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Resume is the parsed text of an uploaded resume.
type Resume struct {
	Content    string    `json:"content"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	BlobURL    string    `json:"blobUrl,omitempty"`
}

// Store keeps the latest parsed resume per user. Get returns nil, nil when
// the user has none.
type Store interface {
	Save(ctx context.Context, userID string, r *Resume) error
	Get(ctx context.Context, userID string) (*Resume, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	resumes map[string]*Resume
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{resumes: make(map[string]*Resume)}
}

func (m *MemoryStore) Save(_ context.Context, userID string, r *Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.resumes[userID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resumes[userID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.resumes[userID]
	delete(m.resumes, userID)
	return ok, nil
}

const redisKeyPrefix = "teacheasy:resume:"

// RedisStore keeps parsed resumes in Redis so they survive restarts and are
// shared between replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) Save(ctx context.Context, userID string, r *Resume) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(userID), data, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*Resume, error) {
	data, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get resume: %w", err)
	}
	var r Resume
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode resume: %w", err)
	}
	return &r, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Del(ctx, redisKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete resume: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
