package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/domain"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

// RequireRoles ensures the authenticated principal has one of the allowed roles.
// It must run after an AuthMiddleware handler.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	names := make([]string, 0, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
		names = append(names, role.String())
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role", map[string]any{"allowed": names})
		}
		return c.Next()
	}
}
