package identity

import (
	"golang.org/x/oauth2"
)

// OAuthScopes are the provider scopes required to resolve the subject and
// its guild role memberships.
var OAuthScopes = []string{"identify", "guilds", "guilds.members.read"}

// discordEndpoint is the Discord OAuth2 authorization endpoint pair.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/api/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

// OAuthConfig builds sign-in URLs for the Discord OAuth flow. The code
// exchange is handled by the auth backend, so only the authorize leg is
// modeled here.
type OAuthConfig struct {
	cfg oauth2.Config
}

// NewOAuthConfig constructs an OAuthConfig for the given client id and
// redirect URL.
func NewOAuthConfig(clientID, redirectURL string) *OAuthConfig {
	return &OAuthConfig{cfg: oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Scopes:      OAuthScopes,
		Endpoint:    discordEndpoint,
	}}
}

// SignInURL returns the provider authorization URL for the given state.
func (o *OAuthConfig) SignInURL(state string) string {
	return o.cfg.AuthCodeURL(state)
}
