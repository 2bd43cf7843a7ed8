// Package provider builds authorization URLs for the external OAuth2
// identity providers the platform supports. The gateway only initiates
// the redirect; the authorization-code exchange always goes through the
// crowdfunding backend, which holds the client secrets.
package provider

import (
	"errors"

	"golang.org/x/oauth2"

	"github.com/haven-platform/gateway/domain"
)

var ErrProviderMisconfigured = errors.New("provider is misconfigured")

// Provider generates the authorization URL the user is redirected to.
type Provider interface {
	// Name returns the unique identifier for the provider.
	Name() domain.AuthProvider

	// AuthCodeURL generates the authorization URL for the given CSRF
	// state and redirect URL.
	AuthCodeURL(state, redirectURL string) (string, error)
}

type baseProvider struct {
	name     domain.AuthProvider
	clientID string
	scopes   []string
	endpoint oauth2.Endpoint
}

func (b *baseProvider) Name() domain.AuthProvider {
	return b.name
}

func (b *baseProvider) AuthCodeURL(state, redirectURL string) (string, error) {
	if b.clientID == "" {
		return "", ErrProviderMisconfigured
	}

	conf := &oauth2.Config{
		ClientID:    b.clientID,
		RedirectURL: redirectURL,
		Scopes:      b.scopes,
		Endpoint:    b.endpoint,
	}
	return conf.AuthCodeURL(state), nil
}

// Registry holds the configured providers keyed by name.
type Registry struct {
	providers map[domain.AuthProvider]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[domain.AuthProvider]Provider)}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider by name, or nil if it is not configured.
func (r *Registry) Get(name domain.AuthProvider) Provider {
	return r.providers[name]
}
