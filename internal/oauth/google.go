package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/spec-kit/learning-platform/internal/domain"
)

const googleProfileURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrUnverifiedEmail is returned when the provider has not verified the account email.
var ErrUnverifiedEmail = errors.New("oauth: provider email not verified")

// Provider abstracts an OAuth2 identity provider.
type Provider interface {
	// Name returns the provider identifier, e.g. "google".
	Name() string
	// AuthURL returns the consent screen URL carrying state.
	AuthURL(state string) string
	// Exchange trades an authorization code for the user's profile.
	Exchange(ctx context.Context, code string) (domain.ExternalProfile, error)
}

// GoogleProvider implements Provider for Google sign-in.
type GoogleProvider struct {
	cfg        *oauth2.Config
	profileURL string
}

// NewGoogleProvider creates a provider for the given OAuth client.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		profileURL: googleProfileURL,
	}
}

// Name returns "google".
func (g *GoogleProvider) Name() string {
	return "google"
}

// AuthURL returns the Google consent screen URL.
func (g *GoogleProvider) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange swaps the code for a token and fetches the Google profile.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (domain.ExternalProfile, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("google: token exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.profileURL, nil)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("google: create profile request: %w", err)
	}

	resp, err := g.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("google: fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ExternalProfile{}, fmt.Errorf("google: profile fetch failed (%d): %s", resp.StatusCode, string(body))
	}

	var profile struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("google: decode profile: %w", err)
	}
	if !profile.VerifiedEmail {
		return domain.ExternalProfile{}, ErrUnverifiedEmail
	}

	return domain.ExternalProfile{
		Provider:   g.Name(),
		ProviderID: profile.ID,
		Email:      profile.Email,
		Name:       profile.Name,
		Picture:    profile.Picture,
	}, nil
}
