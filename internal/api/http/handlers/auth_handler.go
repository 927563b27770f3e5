package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/learning-platform/internal/api/dto"
	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/domain"
	"github.com/spec-kit/learning-platform/internal/service"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

// Redirect reasons appended to the login page after a failed Google sign-in.
const (
	reasonInvalidState = "invalid_state"
	reasonOAuthFailed  = "oauth_failed"
	reasonServerError  = "server_error"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	auth        *service.AuthService
	cookies     *auth.CookiePolicy
	frontendURL string
	logger      *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookies *auth.CookiePolicy, frontendURL string, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authService, cookies: cookies, frontendURL: frontendURL, logger: logger}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "user registered",
		"data":    dto.NewUserResponse(user),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookies.SetSession(c, session.User.Role, session.Tokens)
	return c.JSON(fiber.Map{"data": authResponse(session)})
}

// Refresh handles GET /auth/refresh-token. The instructor slot is consulted
// before the student slot.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(auth.SlotNames(domain.RoleInstructor).Refresh)
	if token == "" {
		token = c.Cookies(auth.SlotNames(domain.RoleStudent).Refresh)
	}
	if token == "" {
		return apperrors.NewUnauthorized("refresh token missing")
	}

	session, err := h.auth.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}

	h.cookies.SetSession(c, session.User.Role, session.Tokens)
	return c.JSON(fiber.Map{"data": authResponse(session)})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.cookies.ClearAll(c)
	return c.JSON(fiber.Map{"message": "logged out"})
}

// GoogleStart handles GET /auth/google.
func (h *AuthHandler) GoogleStart(c *fiber.Ctx) error {
	target, err := h.auth.BeginOAuth(c.UserContext())
	if err != nil {
		return err
	}
	return c.Redirect(target, http.StatusFound)
}

// GoogleCallback handles GET /auth/google/callback. Failures never surface as
// JSON; the browser is sent back to the login page with a reason.
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	if providerErr := c.Query("error"); providerErr != "" {
		h.logger.Info("google sign-in declined", zap.String("error", providerErr))
		return h.loginRedirect(c, reasonOAuthFailed)
	}

	result, err := h.auth.CompleteOAuth(c.UserContext(), c.Query("state"), c.Query("code"))
	if err != nil {
		reason := callbackFailureReason(err)
		h.logger.Warn("google sign-in failed", zap.String("reason", reason), zap.Error(err))
		return h.loginRedirect(c, reason)
	}

	h.cookies.SetSession(c, result.User.Role, result.Tokens)
	return c.Redirect(h.frontendURL+landingPath(result.User.Role, result.IsNewUser), http.StatusFound)
}

// UpdateRole handles PUT /auth/update-role. Cookies of the previous role are
// left in place.
func (h *AuthHandler) UpdateRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.FinalizeRole(c.UserContext(), *principal, req.Role)
	if err != nil {
		return err
	}

	h.cookies.SetSession(c, session.User.Role, session.Tokens)
	return c.JSON(fiber.Map{
		"message": "role updated",
		"data":    dto.NewUserResponse(session.User),
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.auth.CurrentUser(c.UserContext(), *principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Session reports the principal loaded by a role-pinned gate.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.PrincipalResponse{
		ID:    principal.ID,
		Email: principal.Email,
		Role:  principal.Role,
	}})
}

func (h *AuthHandler) loginRedirect(c *fiber.Ctx, reason string) error {
	return c.Redirect(h.frontendURL+"/login?error="+url.QueryEscape(reason), http.StatusFound)
}

func landingPath(role domain.Role, isNew bool) string {
	if isNew {
		return "/select-role"
	}
	if role == domain.RoleInstructor {
		return "/instructor/dashboard"
	}
	return "/student/dashboard"
}

func callbackFailureReason(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidOAuthState):
		return reasonInvalidState
	case apperrors.IsRetryable(err):
		return reasonServerError
	default:
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.HTTPStatus >= http.StatusInternalServerError {
			return reasonServerError
		}
		return reasonOAuthFailed
	}
}

func authResponse(session *service.Session) dto.AuthResponse {
	return dto.AuthResponse{
		AccessToken: session.Tokens.Access.Value,
		ExpiresAt:   session.Tokens.Access.ExpiresAt,
		User:        dto.NewUserResponse(session.User),
	}
}
