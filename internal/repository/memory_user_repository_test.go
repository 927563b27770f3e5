package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/learning-platform/internal/domain"
)

func TestInMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()

	user := &domain.User{Name: "Ada", Email: " Ada@X.com ", Role: domain.RoleStudent}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)
	require.Equal(t, "ada@x.com", user.Email)

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &domain.User{Name: "Other", Email: "ADA@x.com", Role: domain.RoleStudent})
		require.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("lookup by email is case insensitive", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ada@X.COM")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("update role", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.Role = domain.RoleInstructor
		require.NoError(t, repo.Update(ctx, got))

		again, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleInstructor, again.Role)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.Name = "mutated"
		again, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "Ada", again.Name)
	})

	t.Run("missing rows", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "nope")
		require.ErrorIs(t, err, pgx.ErrNoRows)
		_, err = repo.GetByEmail(ctx, "nope@x.com")
		require.ErrorIs(t, err, pgx.ErrNoRows)
		require.ErrorIs(t, repo.Update(ctx, &domain.User{ID: "nope"}), pgx.ErrNoRows)
	})
}

func TestInMemoryUserRepositoryGoogleID(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()

	googleID := "g-1"
	user := &domain.User{Name: "G", Email: "g@x.com", Role: domain.RoleStudent, GoogleID: &googleID}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = repo.GetByGoogleID(ctx, "g-2")
	require.ErrorIs(t, err, pgx.ErrNoRows)

	err = repo.Create(ctx, &domain.User{Name: "H", Email: "h@x.com", Role: domain.RoleStudent, GoogleID: &googleID})
	require.ErrorIs(t, err, ErrDuplicate)

	other := &domain.User{Name: "O", Email: "o@x.com", Role: domain.RoleStudent}
	require.NoError(t, repo.Create(ctx, other))
	other.GoogleID = &googleID
	require.ErrorIs(t, repo.Update(ctx, other), ErrDuplicate)
}
