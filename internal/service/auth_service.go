package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/config"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/events"
	"github.com/spec-kit/learning-platform/internal/oauth"
	"github.com/spec-kit/learning-platform/internal/repository"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

// ErrInvalidOAuthState is returned when a sign-in callback carries an unknown or reused state.
var ErrInvalidOAuthState = errors.New("invalid oauth state")

// RegisterInput carries the registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Session is an authenticated user together with freshly issued tokens.
type Session struct {
	User   *domain.User
	Tokens auth.TokenPair
}

// BridgeResult is the outcome of a completed Google sign-in.
type BridgeResult struct {
	Session
	IsNewUser bool
}

// AuthService coordinates registration, login and session flows.
type AuthService struct {
	users       repository.UserRepository
	states      repository.OAuthStateRepository
	provider    oauth.Provider
	bridge      *auth.IdentityBridge
	tokenMgr    *auth.TokenManager
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	bcryptCost  int
	stateTTL    time.Duration
	strictClass bool
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	StateRepo  repository.OAuthStateRepository
	Provider   oauth.Provider
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		states:      deps.StateRepo,
		provider:    deps.Provider,
		bridge:      auth.NewIdentityBridge(deps.UserRepo),
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()),
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		stateTTL:    cfg.Auth.OAuthStateTTL(),
		strictClass: cfg.Auth.StrictTokenClass,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a password account. No session is started.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" || strings.TrimSpace(in.Role) == "" {
		return nil, apperrors.NewValidationError("name, email, password and role are required", nil)
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"role": in.Role})
	}

	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperrors.NewValidationError("password is too long", map[string]any{"max_bytes": auth.MaxPasswordBytes})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user already exists", map[string]any{"email": email})
	} else if !apperrors.IsNotFound(err) {
		return nil, apperrors.NewInfrastructure(err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("password is too long", map[string]any{"max_bytes": auth.MaxPasswordBytes})
		}
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("user already exists", map[string]any{"email": email})
		}
		return nil, apperrors.NewInfrastructure(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", role.String()))
	s.publish(ctx, events.EventUserRegistered, user, nil)
	return user, nil
}

// Login authenticates a password account and issues a session for its role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInfrastructure(err)
	}
	if !user.HasPassword() {
		return nil, apperrors.NewUnauthorized("this account uses Google sign-in, please log in with Google")
	}
	if !auth.PasswordMatches(*user.PasswordHash, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", user.Role.String()))
	s.publish(ctx, events.EventUserLoggedIn, user, events.LoginPayload{Method: "password"})
	return session, nil
}

// Refresh verifies a refresh token and reissues both tokens for the user's
// currently stored role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperrors.NewUnauthorized("refresh token missing")
	}

	var (
		principal auth.Principal
		err       error
	)
	if s.strictClass {
		principal, err = s.tokenMgr.VerifyClass(refreshToken, domain.TokenClassRefresh)
	} else {
		principal, err = s.tokenMgr.Verify(refreshToken)
	}
	if err != nil {
		return nil, apperrors.NewTokenInvalid()
	}

	user, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("user no longer exists")
		}
		return nil, apperrors.NewInfrastructure(err)
	}
	return s.issueSession(user)
}

// BeginOAuth stores a fresh state nonce and returns the provider consent URL.
func (s *AuthService) BeginOAuth(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.states.Save(ctx, state, s.stateTTL); err != nil {
		return "", apperrors.NewInfrastructure(err)
	}
	return s.provider.AuthURL(state), nil
}

// CompleteOAuth redeems state, exchanges code with the provider and bridges
// the resulting profile into a local session.
func (s *AuthService) CompleteOAuth(ctx context.Context, state, code string) (*BridgeResult, error) {
	if state == "" || code == "" {
		return nil, ErrInvalidOAuthState
	}
	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, apperrors.NewInfrastructure(err)
	}
	if !ok {
		return nil, ErrInvalidOAuthState
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, isNew, err := s.bridge.Resolve(ctx, profile)
	if err != nil {
		return nil, err
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("oauth sign-in",
		zap.String("user_id", user.ID),
		zap.String("provider", profile.Provider),
		zap.Bool("new_user", isNew))
	if isNew {
		s.publish(ctx, events.EventOAuthUserCreated, user, nil)
	}
	s.publish(ctx, events.EventUserLoggedIn, user, events.LoginPayload{Method: s.provider.Name()})
	return &BridgeResult{Session: *session, IsNewUser: isNew}, nil
}

// FinalizeRole persists the role chosen by an authenticated user and issues
// tokens for it. Concurrent calls for the same user are last-write-wins.
func (s *AuthService) FinalizeRole(ctx context.Context, principal auth.Principal, rawRole string) (*Session, error) {
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"role": rawRole})
	}

	user, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("user no longer exists")
		}
		return nil, apperrors.NewInfrastructure(err)
	}

	oldRole := user.Role
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInfrastructure(err)
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("role finalized",
		zap.String("user_id", user.ID),
		zap.String("old_role", oldRole.String()),
		zap.String("new_role", role.String()))
	s.publish(ctx, events.EventRoleFinalized, user, events.RoleFinalizedPayload{OldRole: oldRole, NewRole: role})
	return session, nil
}

// CurrentUser loads the credential record of an authenticated principal.
func (s *AuthService) CurrentUser(ctx context.Context, principal auth.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInfrastructure(err)
	}
	return user, nil
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	pair, err := s.tokenMgr.IssuePair(auth.Principal{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Tokens: pair}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, user *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
