package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an authentication or registration failure.
type Kind string

const (
	InvalidCredentials     Kind = "invalid_credentials"
	AccountSuspended       Kind = "account_suspended"
	RateLimited            Kind = "rate_limited"
	OAuthStateInvalid      Kind = "oauth_state_invalid"
	OAuthProviderError     Kind = "oauth_provider_error"
	OAuthExchangeFailed    Kind = "oauth_exchange_failed"
	RegistrationRejected   Kind = "registration_rejected"
	ServiceUnavailable     Kind = "service_unavailable"
	RoleMismatch           Kind = "role_mismatch"
	AuthenticationRequired Kind = "authentication_required"
)

// AuthError is the tagged failure type returned by the controllers.
// Callers branch on Kind; raw transport errors never cross the controller
// boundary.
type AuthError struct {
	Kind        Kind   `json:"error"`
	Description string `json:"error_description,omitempty"`
	// RetryAfter is the number of seconds until the rate-limit window
	// frees up. Only set for RateLimited.
	RetryAfter int `json:"retry_after,omitempty"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// KindOf extracts the taxonomy kind from err, or "" if err is not an
// AuthError.
func KindOf(err error) Kind {
	var ae *AuthError
	if stderrors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether err carries the given taxonomy kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// HTTPStatus maps a taxonomy kind to the status code the gateway answers
// with. Unknown kinds map to 500.
func HTTPStatus(k Kind) int {
	switch k {
	case InvalidCredentials, AuthenticationRequired:
		return http.StatusUnauthorized
	case AccountSuspended, RoleMismatch:
		return http.StatusForbidden
	case RateLimited:
		return http.StatusTooManyRequests
	case OAuthStateInvalid, OAuthProviderError, OAuthExchangeFailed, RegistrationRejected:
		return http.StatusBadRequest
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewInvalidCredentials() *AuthError {
	return &AuthError{
		Kind:        InvalidCredentials,
		Description: "invalid email or password",
	}
}

func NewAccountSuspended() *AuthError {
	return &AuthError{
		Kind:        AccountSuspended,
		Description: "account is suspended, please contact support",
	}
}

func NewRateLimited(retryAfter int) *AuthError {
	return &AuthError{
		Kind:        RateLimited,
		Description: "too many login attempts, please try again later",
		RetryAfter:  retryAfter,
	}
}

func NewOAuthStateInvalid(description string) *AuthError {
	return &AuthError{Kind: OAuthStateInvalid, Description: description}
}

func NewOAuthProviderError(description string) *AuthError {
	return &AuthError{Kind: OAuthProviderError, Description: description}
}

func NewOAuthExchangeFailed(description string) *AuthError {
	return &AuthError{Kind: OAuthExchangeFailed, Description: description}
}

func NewRegistrationRejected(detail string) *AuthError {
	return &AuthError{Kind: RegistrationRejected, Description: detail}
}

func NewServiceUnavailable(description string) *AuthError {
	return &AuthError{Kind: ServiceUnavailable, Description: description}
}

func NewRoleMismatch(required string) *AuthError {
	return &AuthError{
		Kind:        RoleMismatch,
		Description: fmt.Sprintf("this feature requires a %s account", required),
	}
}

func NewAuthenticationRequired() *AuthError {
	return &AuthError{
		Kind:        AuthenticationRequired,
		Description: "please log in to access this page",
	}
}
