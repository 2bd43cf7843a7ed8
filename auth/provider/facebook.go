package provider

import (
	facebookOAuth2 "golang.org/x/oauth2/facebook"

	"github.com/haven-platform/gateway/domain"
)

// NewFacebook creates the Facebook provider. public_profile and email
// cover everything the registration flow needs from the Graph API.
func NewFacebook(appID string) Provider {
	return &baseProvider{
		name:     domain.AuthProviderFacebook,
		clientID: appID,
		scopes:   []string{"public_profile", "email"},
		endpoint: facebookOAuth2.Endpoint,
	}
}
