package provider

import (
	googleOAuth2 "golang.org/x/oauth2/google"

	"github.com/haven-platform/gateway/domain"
)

// NewGoogle creates the Google provider. The openid, profile, and email
// scopes are always requested so the callback claims carry a usable
// identity.
func NewGoogle(clientID string) Provider {
	return &baseProvider{
		name:     domain.AuthProviderGoogle,
		clientID: clientID,
		scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/userinfo.email",
		},
		endpoint: googleOAuth2.Endpoint,
	}
}
