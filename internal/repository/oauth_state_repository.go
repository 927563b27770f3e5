package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const oauthStatePrefix = "oauth_state:"

// OAuthStateRepository stores one-time sign-in state nonces.
type OAuthStateRepository interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume deletes the state and reports whether it existed and had not expired.
	Consume(ctx context.Context, state string) (bool, error)
}

type redisOAuthStateRepository struct {
	client *redis.Client
}

// NewRedisOAuthStateRepository returns a Redis-backed implementation.
func NewRedisOAuthStateRepository(client *redis.Client) OAuthStateRepository {
	return &redisOAuthStateRepository{client: client}
}

func (r *redisOAuthStateRepository) Save(ctx context.Context, state string, ttl time.Duration) error {
	return r.client.Set(ctx, oauthStatePrefix+state, "1", ttl).Err()
}

func (r *redisOAuthStateRepository) Consume(ctx context.Context, state string) (bool, error) {
	err := r.client.GetDel(ctx, oauthStatePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type inMemoryOAuthStateRepository struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewInMemoryOAuthStateRepository creates a process-local state store.
func NewInMemoryOAuthStateRepository() OAuthStateRepository {
	return &inMemoryOAuthStateRepository{states: make(map[string]time.Time), now: time.Now}
}

func (r *inMemoryOAuthStateRepository) Save(_ context.Context, state string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, expiresAt := range r.states {
		if !now.Before(expiresAt) {
			delete(r.states, key)
		}
	}
	r.states[state] = now.Add(ttl)
	return nil
}

func (r *inMemoryOAuthStateRepository) Consume(_ context.Context, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.states[state]
	if !ok {
		return false, nil
	}
	delete(r.states, state)
	return r.now().Before(expiresAt), nil
}
