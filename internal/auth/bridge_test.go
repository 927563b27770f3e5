package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

type failingUsers struct {
	repository.UserRepository
	err error
}

func (f failingUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, f.err
}

type racingUsers struct {
	repository.UserRepository
	winner *domain.User
	calls  int
}

func (r *racingUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.calls++
	if r.calls == 1 {
		return r.UserRepository.GetByEmail(ctx, email)
	}
	return r.winner, nil
}

func (r *racingUsers) Create(context.Context, *domain.User) error {
	return repository.ErrDuplicate
}

type conflictingUsers struct {
	repository.UserRepository
}

func (conflictingUsers) Create(context.Context, *domain.User) error {
	return repository.ErrDuplicate
}

func TestIdentityBridgeResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("new profile creates passwordless student", func(t *testing.T) {
		users := repository.NewInMemoryUserRepository()
		bridge := NewIdentityBridge(users)

		user, isNew, err := bridge.Resolve(ctx, domain.ExternalProfile{
			Provider: "google", ProviderID: "g-123", Email: "new@x.com", Name: "New Person", Picture: "https://img/p.png",
		})
		require.NoError(t, err)
		require.True(t, isNew)
		require.Equal(t, domain.RoleStudent, user.Role)
		require.Nil(t, user.PasswordHash)
		require.Equal(t, "g-123", *user.GoogleID)
		require.Equal(t, "https://img/p.png", *user.ProfilePicture)

		stored, err := users.GetByEmail(ctx, "new@x.com")
		require.NoError(t, err)
		require.Equal(t, user.ID, stored.ID)
	})

	t.Run("existing account is returned unchanged", func(t *testing.T) {
		users := repository.NewInMemoryUserRepository()
		hash := "$2a$04$existing"
		existing := &domain.User{Name: "Old", Email: "old@x.com", Role: domain.RoleInstructor, PasswordHash: &hash}
		require.NoError(t, users.Create(ctx, existing))

		user, isNew, err := NewIdentityBridge(users).Resolve(ctx, domain.ExternalProfile{Email: "old@x.com", Name: "Renamed"})
		require.NoError(t, err)
		require.False(t, isNew)
		require.Equal(t, existing.ID, user.ID)
		require.Equal(t, domain.RoleInstructor, user.Role)
		require.Equal(t, "Old", user.Name)
	})

	t.Run("name falls back to email local part", func(t *testing.T) {
		user, _, err := NewIdentityBridge(repository.NewInMemoryUserRepository()).Resolve(ctx, domain.ExternalProfile{Email: "nameless@x.com"})
		require.NoError(t, err)
		require.Equal(t, "nameless", user.Name)
	})

	t.Run("missing email", func(t *testing.T) {
		_, _, err := NewIdentityBridge(repository.NewInMemoryUserRepository()).Resolve(ctx, domain.ExternalProfile{Name: "x"})
		require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("directory unavailable is retryable", func(t *testing.T) {
		bridge := NewIdentityBridge(failingUsers{err: errors.New("connection refused")})
		user, isNew, err := bridge.Resolve(ctx, domain.ExternalProfile{Email: "a@x.com"})
		require.Error(t, err)
		require.True(t, apperrors.IsRetryable(err))
		require.Nil(t, user)
		require.False(t, isNew)
	})

	t.Run("concurrent first sign-in returns the winner", func(t *testing.T) {
		winner := &domain.User{ID: "winner", Email: "race@x.com", Role: domain.RoleStudent}
		users := &racingUsers{UserRepository: repository.NewInMemoryUserRepository(), winner: winner}
		user, isNew, err := NewIdentityBridge(users).Resolve(ctx, domain.ExternalProfile{Email: "race@x.com"})
		require.NoError(t, err)
		require.False(t, isNew)
		require.Equal(t, "winner", user.ID)
	})

	t.Run("changed email matches linked provider id", func(t *testing.T) {
		users := repository.NewInMemoryUserRepository()
		bridge := NewIdentityBridge(users)
		first, isNew, err := bridge.Resolve(ctx, domain.ExternalProfile{ProviderID: "g-7", Email: "old@x.com"})
		require.NoError(t, err)
		require.True(t, isNew)

		user, isNew, err := bridge.Resolve(ctx, domain.ExternalProfile{ProviderID: "g-7", Email: "renamed@x.com"})
		require.NoError(t, err)
		require.False(t, isNew)
		require.Equal(t, first.ID, user.ID)
		require.Equal(t, "old@x.com", user.Email)
	})

	t.Run("unresolvable duplicate is a conflict, not retryable", func(t *testing.T) {
		bridge := NewIdentityBridge(conflictingUsers{UserRepository: repository.NewInMemoryUserRepository()})
		user, isNew, err := bridge.Resolve(ctx, domain.ExternalProfile{ProviderID: "g-9", Email: "ghost@x.com"})
		require.Nil(t, user)
		require.False(t, isNew)
		require.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
		require.False(t, apperrors.IsRetryable(err))
	})
}
