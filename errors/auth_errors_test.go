package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, InvalidCredentials, KindOf(NewInvalidCredentials()))
	assert.Equal(t, RateLimited, KindOf(fmt.Errorf("wrapped: %w", NewRateLimited(60))))
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain error")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestIsKind(t *testing.T) {
	err := NewRoleMismatch("organization")
	assert.True(t, IsKind(err, RoleMismatch))
	assert.False(t, IsKind(err, AccountSuspended))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidCredentials:     http.StatusUnauthorized,
		AuthenticationRequired: http.StatusUnauthorized,
		AccountSuspended:       http.StatusForbidden,
		RoleMismatch:           http.StatusForbidden,
		RateLimited:            http.StatusTooManyRequests,
		OAuthStateInvalid:      http.StatusBadRequest,
		OAuthProviderError:     http.StatusBadRequest,
		OAuthExchangeFailed:    http.StatusBadRequest,
		RegistrationRejected:   http.StatusBadRequest,
		ServiceUnavailable:     http.StatusServiceUnavailable,
		Kind("unknown"):        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	err := NewRateLimited(120)
	assert.Equal(t, 120, err.RetryAfter)
	assert.Contains(t, err.Error(), "rate_limited")
}
