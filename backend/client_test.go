package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-platform/gateway/domain"
	autherrors "github.com/haven-platform/gateway/errors"
)

func TestMain(m *testing.M) {
	log.Logger = zerolog.Nop()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, 2*time.Second)
}

func TestLoginSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "asha@example.com", body["email"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at",
			"refresh_token": "rt",
			"user":          map[string]any{"email": "asha@example.com"},
		})
	}))

	result, err := c.Login(context.Background(), "asha@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "at", result.AccessToken)
	assert.Equal(t, "asha@example.com", result.User["email"])
}

func TestLoginStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   autherrors.Kind
	}{
		{http.StatusUnauthorized, autherrors.InvalidCredentials},
		{http.StatusForbidden, autherrors.AccountSuspended},
		{http.StatusTooManyRequests, autherrors.RateLimited},
		{http.StatusInternalServerError, autherrors.ServiceUnavailable},
	}

	for _, tc := range cases {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := c.Login(context.Background(), "a@b.com", "pw")
		assert.True(t, autherrors.IsKind(err, tc.kind), "status %d", tc.status)
	}
}

func TestLoginRateLimitedCarriesRetryAfter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.Login(context.Background(), "a@b.com", "pw")
	var ae *autherrors.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 120, ae.RetryAfter)
}

func TestLoginTransportFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond, 200*time.Millisecond)

	_, err := c.Login(context.Background(), "a@b.com", "pw")
	assert.True(t, autherrors.IsKind(err, autherrors.ServiceUnavailable))
}

func TestOAuthURLMissingAuthURL(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	_, err := c.OAuthURL(context.Background(), domain.AuthProviderGoogle, domain.UserTypeIndividual, "state", "http://cb")
	assert.True(t, autherrors.IsKind(err, autherrors.OAuthExchangeFailed))
}

func TestOAuthURLPassesParams(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/google/login", r.URL.Path)
		assert.Equal(t, "individual", r.URL.Query().Get("user_type"))
		assert.Equal(t, "st-1", r.URL.Query().Get("state"))
		json.NewEncoder(w).Encode(map[string]string{"auth_url": "https://accounts.google.com/auth"})
	}))

	authURL, err := c.OAuthURL(context.Background(), domain.AuthProviderGoogle, domain.UserTypeIndividual, "st-1", "http://cb")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.google.com/auth", authURL)
}

func TestExchangeOAuthCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/facebook/callback", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"token": "identity-token"})
	}))

	token, err := c.ExchangeOAuthCode(context.Background(), domain.AuthProviderFacebook, "code", domain.UserTypeOrganization, "http://cb")
	require.NoError(t, err)
	assert.Equal(t, "identity-token", token)
}

func TestRegisterRejectionCarriesDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"detail": "organization already exists"})
	}))

	_, err := c.Register(context.Background(), map[string]any{"user_type": "organization"})
	require.True(t, autherrors.IsKind(err, autherrors.RegistrationRejected))
	assert.Contains(t, err.Error(), "organization already exists")
}

func TestRegisterSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"user_data": map[string]any{"id": "u-1"}})
	}))

	userData, err := c.Register(context.Background(), map[string]any{"email": "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", userData["id"])
}

func TestRegistrationStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"is_registered": true, "registration_type": "individual"})
	}))

	status, err := c.RegistrationStatus(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, status.IsRegistered)
	assert.Equal(t, "individual", status.RegistrationType)
}

func TestRegistrationStatusUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.RegistrationStatus(context.Background(), "stale")
	assert.True(t, autherrors.IsKind(err, autherrors.AuthenticationRequired))
}

func TestCheckExistence(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/check-existence", r.URL.Path)
		assert.Equal(t, "organizations", r.URL.Query().Get("table"))
		json.NewEncoder(w).Encode(map[string]any{"exists": true, "user_data": map[string]any{"email": "org@example.com"}})
	}))

	exists, userData, err := c.CheckExistence(context.Background(), "org@example.com", "organizations")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "org@example.com", userData["email"])
}
