package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/learning-platform/internal/domain"
)

// ErrInvalidToken is returned for any token that cannot be trusted:
// bad signature, malformed payload, unknown role, wrong class or expiry.
var ErrInvalidToken = errors.New("invalid token")

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Principal is the identity asserted by a verified token.
type Principal struct {
	ID    string
	Email string
	Role  domain.Role
}

// Token is a signed token together with its expiry.
type Token struct {
	Value     string
	Class     domain.TokenClass
	ExpiresAt time.Time
}

// TokenPair holds the access and refresh tokens issued together.
type TokenPair struct {
	Access  Token
	Refresh Token
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager. Non-positive TTLs fall back to the defaults.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// WithClock returns a copy of the manager reading time from now.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	clone := *tm
	clone.now = now
	return &clone
}

// TTL returns the lifetime of the given token class.
func (tm *TokenManager) TTL(class domain.TokenClass) time.Duration {
	if class == domain.TokenClassRefresh {
		return tm.refreshTTL
	}
	return tm.accessTTL
}

// Claims describes JWT payload.
type Claims struct {
	Email string            `json:"email"`
	Role  domain.Role       `json:"role"`
	Class domain.TokenClass `json:"class"`
	jwt.RegisteredClaims
}

// Issue builds and signs a token of the given class for the principal.
func (tm *TokenManager) Issue(principal Principal, class domain.TokenClass) (Token, error) {
	now := tm.now()
	expiresAt := now.Add(tm.TTL(class))
	claims := &Claims{
		Email: principal.Email,
		Role:  principal.Role,
		Class: class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principal.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: tokenString, Class: class, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// IssuePair issues an access and a refresh token for the principal.
func (tm *TokenManager) IssuePair(principal Principal) (TokenPair, error) {
	access, err := tm.Issue(principal, domain.TokenClassAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := tm.Issue(principal, domain.TokenClassRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify validates signature and expiry and returns the embedded principal.
func (tm *TokenManager) Verify(tokenStr string) (Principal, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return Principal{}, err
	}
	return claims.principal(), nil
}

// VerifyClass is Verify restricted to tokens issued with the given class.
func (tm *TokenManager) VerifyClass(tokenStr string, class domain.TokenClass) (Principal, error) {
	claims, err := tm.parse(tokenStr)
	if err != nil {
		return Principal{}, err
	}
	if claims.Class != class {
		return Principal{}, ErrInvalidToken
	}
	return claims.principal(), nil
}

func (tm *TokenManager) parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Claims) principal() Principal {
	return Principal{ID: c.Subject, Email: c.Email, Role: c.Role}
}
