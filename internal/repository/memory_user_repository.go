package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// inMemoryUserRepository keeps users in process memory. It backs local
// development without Postgres and the HTTP tests.
type inMemoryUserRepository struct {
	mu       sync.RWMutex
	byID     map[string]*domain.User
	byEmail  map[string]string
	byGoogle map[string]string
}

// NewInMemoryUserRepository creates an empty repository.
func NewInMemoryUserRepository() UserRepository {
	return &inMemoryUserRepository{
		byID:     make(map[string]*domain.User),
		byEmail:  make(map[string]string),
		byGoogle: make(map[string]string),
	}
}

func (r *inMemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return ErrDuplicate
	}
	if user.GoogleID != nil {
		if _, exists := r.byGoogle[*user.GoogleID]; exists {
			return ErrDuplicate
		}
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[email] = user.ID
	if user.GoogleID != nil {
		r.byGoogle[*user.GoogleID] = user.ID
	}
	return nil
}

func (r *inMemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	email := normalizeEmail(user.Email)
	if owner, exists := r.byEmail[email]; exists && owner != user.ID {
		return ErrDuplicate
	}
	if user.GoogleID != nil {
		if owner, exists := r.byGoogle[*user.GoogleID]; exists && owner != user.ID {
			return ErrDuplicate
		}
	}

	delete(r.byEmail, current.Email)
	if current.GoogleID != nil {
		delete(r.byGoogle, *current.GoogleID)
	}
	user.Email = email
	user.UpdatedAt = time.Now().UTC()
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[email] = user.ID
	if user.GoogleID != nil {
		r.byGoogle[*user.GoogleID] = user.ID
	}
	return nil
}

func (r *inMemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *inMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[normalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *inMemoryUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byGoogle[googleID]
	r.mu.RUnlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}
