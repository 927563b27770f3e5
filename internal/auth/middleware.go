package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/domain"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// AuthMiddleware verifies session cookies and loads principals.
//
// By default a role's refresh cookie is accepted when its access cookie is
// absent. With strictClass set, only access cookies holding access-class
// tokens authenticate a request.
type AuthMiddleware struct {
	tokens      *TokenManager
	strictClass bool
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, strictClass bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, strictClass: strictClass}
}

// RequireRole authenticates the request with the session cookies of expected.
func (m *AuthMiddleware) RequireRole(expected domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := m.tokenFor(c, expected)
		if raw == "" {
			return apperrors.NewTokenMissing(expected.String())
		}

		principal, err := m.verify(raw)
		if err != nil {
			return apperrors.NewTokenInvalid()
		}
		if principal.Role != expected {
			return apperrors.NewRoleMismatch(expected.String(), principal.Role.String())
		}

		c.Locals(principalKey, &principal)
		return c.Next()
	}
}

// Any authenticates the request with whichever role's cookies are present,
// student before instructor.
func (m *AuthMiddleware) Any() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var raw string
		for _, role := range domain.Roles() {
			if raw = m.tokenFor(c, role); raw != "" {
				break
			}
		}
		if raw == "" {
			return apperrors.NewTokenMissing("")
		}

		principal, err := m.verify(raw)
		if err != nil {
			return apperrors.NewTokenInvalid()
		}

		c.Locals(principalKey, &principal)
		return c.Next()
	}
}

func (m *AuthMiddleware) tokenFor(c *fiber.Ctx, role domain.Role) string {
	slots := SlotNames(role)
	if raw := c.Cookies(slots.Access); raw != "" {
		return raw
	}
	if m.strictClass {
		return ""
	}
	return c.Cookies(slots.Refresh)
}

func (m *AuthMiddleware) verify(raw string) (Principal, error) {
	if m.strictClass {
		return m.tokens.VerifyClass(raw, domain.TokenClassAccess)
	}
	return m.tokens.Verify(raw)
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
