package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

// IdentityBridge maps external provider identities onto local credential records.
type IdentityBridge struct {
	users repository.UserRepository
}

// NewIdentityBridge constructs a bridge over the user directory.
func NewIdentityBridge(users repository.UserRepository) *IdentityBridge {
	return &IdentityBridge{users: users}
}

// Resolve returns the user owning profile's email, or failing that the user
// already linked to profile's provider id, creating a passwordless STUDENT
// account when neither exists. isNewUser is true only for created accounts,
// which still need to pick their final role. Existing accounts are returned
// unchanged.
func (b *IdentityBridge) Resolve(ctx context.Context, profile domain.ExternalProfile) (*domain.User, bool, error) {
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return nil, false, apperrors.NewValidationError("external profile has no email", nil)
	}

	user, err := b.lookup(ctx, email, profile.ProviderID)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	user = &domain.User{
		Name:  displayName(profile),
		Email: email,
		Role:  domain.RoleStudent,
	}
	if profile.ProviderID != "" {
		id := profile.ProviderID
		user.GoogleID = &id
	}
	if profile.Picture != "" {
		picture := profile.Picture
		user.ProfilePicture = &picture
	}

	if err := b.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent first sign-in for the same identity.
			existing, lookupErr := b.lookup(ctx, email, profile.ProviderID)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing == nil {
				return nil, false, apperrors.NewConflict("external identity conflicts with an existing account", map[string]any{"email": email})
			}
			return existing, false, nil
		}
		return nil, false, apperrors.NewInfrastructure(err)
	}
	return user, true, nil
}

// lookup finds the account by email, then by provider id. A nil user with a
// nil error means neither matched.
func (b *IdentityBridge) lookup(ctx context.Context, email, providerID string) (*domain.User, error) {
	user, err := b.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, apperrors.NewInfrastructure(err)
	}
	if providerID == "" {
		return nil, nil
	}

	user, err = b.users.GetByGoogleID(ctx, providerID)
	if err == nil {
		return user, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, apperrors.NewInfrastructure(err)
	}
	return nil, nil
}

func displayName(profile domain.ExternalProfile) string {
	if name := strings.TrimSpace(profile.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(profile.Email, "@")
	return local
}
