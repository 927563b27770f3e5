package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/learning-platform/internal/domain"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

type gateResult struct {
	status    int
	code      string
	principal Principal
}

func newGateApp(gates ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	handlers := append(gates, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": p.ID, "email": p.Email, "role": p.Role})
	})
	app.Get("/", handlers...)
	return app
}

func runGate(t *testing.T, app *fiber.App, cookies map[string]string) gateResult {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Code  string      `json:"code"`
		ID    string      `json:"id"`
		Email string      `json:"email"`
		Role  domain.Role `json:"role"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return gateResult{
		status:    resp.StatusCode,
		code:      body.Code,
		principal: Principal{ID: body.ID, Email: body.Email, Role: body.Role},
	}
}

func issue(t *testing.T, tm *TokenManager, role domain.Role, class domain.TokenClass) string {
	t.Helper()
	tok, err := tm.Issue(Principal{ID: "id-" + role.String(), Email: "u@x.com", Role: role}, class)
	require.NoError(t, err)
	return tok.Value
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager("secret", 0, 0)
	mw := NewAuthMiddleware(tm, false)
	student := newGateApp(mw.RequireRole(domain.RoleStudent))
	instructor := newGateApp(mw.RequireRole(domain.RoleInstructor))

	t.Run("missing token", func(t *testing.T) {
		res := runGate(t, instructor, nil)
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeTokenMissing, res.code)
	})

	t.Run("student token in student slot", func(t *testing.T) {
		res := runGate(t, student, map[string]string{"student_token": issue(t, tm, domain.RoleStudent, domain.TokenClassAccess)})
		require.Equal(t, http.StatusOK, res.status)
		require.Equal(t, Principal{ID: "id-STUDENT", Email: "u@x.com", Role: domain.RoleStudent}, res.principal)
	})

	t.Run("student token where instructor expected", func(t *testing.T) {
		res := runGate(t, instructor, map[string]string{"instructor_token": issue(t, tm, domain.RoleStudent, domain.TokenClassAccess)})
		require.Equal(t, http.StatusForbidden, res.status)
		require.Equal(t, apperrors.CodeRoleMismatch, res.code)
	})

	t.Run("instructor token where student expected", func(t *testing.T) {
		res := runGate(t, student, map[string]string{"student_token": issue(t, tm, domain.RoleInstructor, domain.TokenClassAccess)})
		require.Equal(t, http.StatusForbidden, res.status)
		require.Equal(t, apperrors.CodeRoleMismatch, res.code)
	})

	t.Run("other role's slot is ignored", func(t *testing.T) {
		res := runGate(t, instructor, map[string]string{"student_token": issue(t, tm, domain.RoleStudent, domain.TokenClassAccess)})
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeTokenMissing, res.code)
	})

	t.Run("invalid token", func(t *testing.T) {
		res := runGate(t, student, map[string]string{"student_token": "garbage"})
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeTokenInvalid, res.code)
	})

	t.Run("expired token", func(t *testing.T) {
		past := tm.WithClock(fixedClock(time.Now().Add(-time.Hour)))
		res := runGate(t, student, map[string]string{"student_token": issue(t, past, domain.RoleStudent, domain.TokenClassAccess)})
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeTokenInvalid, res.code)
	})

	t.Run("falls back to refresh slot", func(t *testing.T) {
		res := runGate(t, instructor, map[string]string{"instructor_refresh_token": issue(t, tm, domain.RoleInstructor, domain.TokenClassRefresh)})
		require.Equal(t, http.StatusOK, res.status)
		require.Equal(t, domain.RoleInstructor, res.principal.Role)
	})

	t.Run("access slot wins over refresh slot", func(t *testing.T) {
		res := runGate(t, student, map[string]string{
			"student_token":         "garbage",
			"student_refresh_token": issue(t, tm, domain.RoleStudent, domain.TokenClassRefresh),
		})
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeTokenInvalid, res.code)
	})
}

func TestRequireRoleStrictClass(t *testing.T) {
	tm := NewTokenManager("secret", 0, 0)
	app := newGateApp(NewAuthMiddleware(tm, true).RequireRole(domain.RoleStudent))

	res := runGate(t, app, map[string]string{"student_refresh_token": issue(t, tm, domain.RoleStudent, domain.TokenClassRefresh)})
	require.Equal(t, http.StatusUnauthorized, res.status)
	require.Equal(t, apperrors.CodeTokenMissing, res.code)

	res = runGate(t, app, map[string]string{"student_token": issue(t, tm, domain.RoleStudent, domain.TokenClassRefresh)})
	require.Equal(t, http.StatusUnauthorized, res.status)
	require.Equal(t, apperrors.CodeTokenInvalid, res.code)

	res = runGate(t, app, map[string]string{"student_token": issue(t, tm, domain.RoleStudent, domain.TokenClassAccess)})
	require.Equal(t, http.StatusOK, res.status)
}

func TestAnyRole(t *testing.T) {
	tm := NewTokenManager("secret", 0, 0)
	app := newGateApp(NewAuthMiddleware(tm, false).Any())

	t.Run("missing", func(t *testing.T) {
		res := runGate(t, app, nil)
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeTokenMissing, res.code)
	})

	t.Run("instructor only", func(t *testing.T) {
		res := runGate(t, app, map[string]string{"instructor_token": issue(t, tm, domain.RoleInstructor, domain.TokenClassAccess)})
		require.Equal(t, http.StatusOK, res.status)
		require.Equal(t, domain.RoleInstructor, res.principal.Role)
	})

	t.Run("student checked first", func(t *testing.T) {
		res := runGate(t, app, map[string]string{
			"student_token":    issue(t, tm, domain.RoleStudent, domain.TokenClassAccess),
			"instructor_token": issue(t, tm, domain.RoleInstructor, domain.TokenClassAccess),
		})
		require.Equal(t, http.StatusOK, res.status)
		require.Equal(t, domain.RoleStudent, res.principal.Role)
	})

	t.Run("no role match step", func(t *testing.T) {
		res := runGate(t, app, map[string]string{"student_token": issue(t, tm, domain.RoleInstructor, domain.TokenClassAccess)})
		require.Equal(t, http.StatusOK, res.status)
		require.Equal(t, domain.RoleInstructor, res.principal.Role)
	})

	t.Run("invalid", func(t *testing.T) {
		res := runGate(t, app, map[string]string{"instructor_refresh_token": "garbage"})
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeTokenInvalid, res.code)
	})
}

func TestRequireRoles(t *testing.T) {
	tm := NewTokenManager("secret", 0, 0)
	mw := NewAuthMiddleware(tm, false)

	t.Run("no principal", func(t *testing.T) {
		app := newGateApp(RequireRoles(domain.RoleInstructor))
		res := runGate(t, app, nil)
		require.Equal(t, http.StatusUnauthorized, res.status)
		require.Equal(t, apperrors.CodeUnauthenticated, res.code)
	})

	t.Run("role not allowed", func(t *testing.T) {
		app := newGateApp(mw.Any(), RequireRoles(domain.RoleInstructor))
		res := runGate(t, app, map[string]string{"student_token": issue(t, tm, domain.RoleStudent, domain.TokenClassAccess)})
		require.Equal(t, http.StatusForbidden, res.status)
		require.Equal(t, apperrors.CodeForbidden, res.code)
	})

	t.Run("role allowed", func(t *testing.T) {
		app := newGateApp(mw.Any(), RequireRoles(domain.Roles()...))
		res := runGate(t, app, map[string]string{"instructor_token": issue(t, tm, domain.RoleInstructor, domain.TokenClassAccess)})
		require.Equal(t, http.StatusOK, res.status)
	})
}
