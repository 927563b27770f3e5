package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// SlotPair names the two cookies holding one role's session.
type SlotPair struct {
	Access  string
	Refresh string
}

var sessionSlots = map[domain.Role]SlotPair{
	domain.RoleStudent:    {Access: "student_token", Refresh: "student_refresh_token"},
	domain.RoleInstructor: {Access: "instructor_token", Refresh: "instructor_refresh_token"},
}

// SlotNames returns the cookie names for role. Unknown roles get an empty pair.
func SlotNames(role domain.Role) SlotPair {
	return sessionSlots[role]
}

// CookieAttributes are the transport attributes of a session cookie.
type CookieAttributes struct {
	HTTPOnly bool
	Secure   bool
	SameSite string
	MaxAge   time.Duration
}

// CookiePolicy sets and clears session cookies on responses.
type CookiePolicy struct {
	production bool
	tokens     *TokenManager
}

// NewCookiePolicy builds a policy. Cookie lifetimes follow the token lifetimes of tokens.
func NewCookiePolicy(production bool, tokens *TokenManager) *CookiePolicy {
	return &CookiePolicy{production: production, tokens: tokens}
}

// Attributes returns the cookie attributes for a token class.
// Secure and SameSite=Strict are only enabled in production.
func (p *CookiePolicy) Attributes(class domain.TokenClass) CookieAttributes {
	attrs := CookieAttributes{
		HTTPOnly: true,
		Secure:   false,
		SameSite: fiber.CookieSameSiteLaxMode,
		MaxAge:   p.tokens.TTL(class),
	}
	if p.production {
		attrs.Secure = true
		attrs.SameSite = fiber.CookieSameSiteStrictMode
	}
	return attrs
}

// SetSession stores both tokens of pair in role's slots.
func (p *CookiePolicy) SetSession(c *fiber.Ctx, role domain.Role, pair TokenPair) {
	slots := SlotNames(role)
	p.set(c, slots.Access, pair.Access.Value, domain.TokenClassAccess)
	p.set(c, slots.Refresh, pair.Refresh.Value, domain.TokenClassRefresh)
}

// ClearRole expires both slots of role.
func (p *CookiePolicy) ClearRole(c *fiber.Ctx, role domain.Role) {
	slots := SlotNames(role)
	p.clear(c, slots.Access, domain.TokenClassAccess)
	p.clear(c, slots.Refresh, domain.TokenClassRefresh)
}

// ClearAll expires every session slot whether or not it was set.
func (p *CookiePolicy) ClearAll(c *fiber.Ctx) {
	for _, role := range domain.Roles() {
		p.ClearRole(c, role)
	}
}

func (p *CookiePolicy) set(c *fiber.Ctx, name, value string, class domain.TokenClass) {
	attrs := p.Attributes(class)
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(attrs.MaxAge / time.Second),
		HTTPOnly: attrs.HTTPOnly,
		Secure:   attrs.Secure,
		SameSite: attrs.SameSite,
	})
}

// clear mirrors the attributes used by set.
func (p *CookiePolicy) clear(c *fiber.Ctx, name string, class domain.TokenClass) {
	attrs := p.Attributes(class)
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: attrs.HTTPOnly,
		Secure:   attrs.Secure,
		SameSite: attrs.SameSite,
	})
}
