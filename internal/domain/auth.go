package domain

// TokenClass differentiates short-lived access tokens from long-lived refresh tokens.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

// ExternalProfile is the identity asserted by an external OAuth provider.
type ExternalProfile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Picture    string
}
