// Package auth implements the gateway's authentication state machine:
// credential login, the two-leg OAuth handshake, session expiry, and the
// route guards. All session mutations happen here; handlers and the
// registration flow only read.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/haven-platform/gateway/auth/provider"
	"github.com/haven-platform/gateway/backend"
	"github.com/haven-platform/gateway/config"
	"github.com/haven-platform/gateway/domain"
	autherrors "github.com/haven-platform/gateway/errors"
	"github.com/haven-platform/gateway/internal/audit"
	"github.com/haven-platform/gateway/internal/metrics"
)

const auditService = "auth"

// Backend is the slice of the crowdfunding backend API the auth flow
// needs. *backend.Client satisfies it; tests substitute a stub.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	OAuthURL(ctx context.Context, provider domain.AuthProvider, userType domain.UserType, state, redirectURI string) (string, error)
	ExchangeOAuthCode(ctx context.Context, provider domain.AuthProvider, code string, userType domain.UserType, redirectURI string) (string, error)
	RegistrationStatus(ctx context.Context, bearerToken string) (*backend.RegistrationStatus, error)
	Register(ctx context.Context, payload map[string]any) (map[string]any, error)
	CheckExistence(ctx context.Context, email, table string) (bool, map[string]any, error)
}

// Service drives the authentication state machine over a session.
type Service struct {
	backend   Backend
	limiter   *RateLimiter
	providers *provider.Registry

	oauthEnabled bool
	// oauthMode is "backend" (the backend builds the authorization URL)
	// or "direct" (the gateway builds it from the configured client IDs).
	oauthMode      string
	redirectURL    string
	claimsKey      []byte
	stateTTL       time.Duration
	sessionTimeout time.Duration

	now func() time.Time
}

// NewService wires the auth service from configuration.
func NewService(cfg *config.GatewayConfig, be Backend, limiter *RateLimiter, providers *provider.Registry) *Service {
	return &Service{
		backend:        be,
		limiter:        limiter,
		providers:      providers,
		oauthEnabled:   cfg.OAuthEnabled,
		oauthMode:      cfg.OAuthMode,
		redirectURL:    cfg.OAuthRedirectURL,
		claimsKey:      []byte(cfg.OAuthClaimsKey),
		stateTTL:       cfg.OAuthStateTTL(),
		sessionTimeout: cfg.SessionTimeout(),
		now:            time.Now,
	}
}

// Login authenticates with email and password. Calling it on a live
// authenticated session is a no-op; an expired one is reset by the check
// and re-authenticated. The rate limiter is consulted before the backend
// is contacted, so a locked-out identifier never generates backend
// traffic.
func (s *Service) Login(ctx context.Context, sess *domain.Session, email, password string) error {
	if s.CheckAuthentication(ctx, sess) {
		return nil
	}

	email = strings.TrimSpace(strings.ToLower(email))

	if ok, retryAfter := s.limiter.Allow(email); !ok {
		metrics.LoginRateLimitedTotal.Inc()
		audit.Log(auditService, "login", email, "", "rate limit exceeded", false, nil)
		return autherrors.NewRateLimited(int(retryAfter.Seconds()) + 1)
	}

	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		// Only credential failures count against the limiter. A backend
		// outage must not lock users out once service recovers.
		switch autherrors.KindOf(err) {
		case autherrors.InvalidCredentials, autherrors.AccountSuspended:
			s.limiter.RecordFailure(email)
		}
		metrics.LoginFailureTotal.Inc()
		audit.Log(auditService, "login", email, "", "", false, err)
		return err
	}

	s.limiter.Reset(email)

	now := s.now()
	sess.Clear()
	sess.Authenticated = true
	sess.AuthProvider = domain.AuthProviderEmail
	sess.UserData = result.User
	sess.AccessToken = result.AccessToken
	sess.RefreshToken = result.RefreshToken
	sess.CreatedAt = now
	sess.LastActivity = now

	s.refreshRegistrationState(ctx, sess)

	metrics.LoginSuccessTotal.Inc()
	metrics.ActiveSessionsGauge.Inc()
	audit.Log(auditService, "login", email, "", "email login", true, nil)
	return nil
}

// InitiateOAuth starts the third-party login handshake and returns the
// authorization URL to redirect the user to. The pending transaction is
// recorded on the session only after a URL was actually obtained, so a
// failed initiation leaves the session untouched.
func (s *Service) InitiateOAuth(ctx context.Context, sess *domain.Session, prov domain.AuthProvider, userType domain.UserType) (string, error) {
	if !s.oauthEnabled {
		return "", autherrors.NewServiceUnavailable("social login is currently disabled")
	}
	// A handshake only exists for anonymous sessions; a live session must
	// log out first.
	if s.CheckAuthentication(ctx, sess) {
		return "", autherrors.NewOAuthStateInvalid("already logged in")
	}
	if !userType.Valid() {
		return "", autherrors.NewOAuthStateInvalid("a role must be selected before social login")
	}

	state := uuid.NewString()

	authURL, err := s.authorizationURL(ctx, prov, userType, state)
	if err != nil {
		metrics.OAuthFailureTotal.Inc()
		audit.Log(auditService, "oauth_initiate", "", string(prov), "", false, err)
		return "", err
	}

	sess.OAuthTransaction = &domain.OAuthTransaction{
		Provider:    prov,
		UserType:    userType,
		State:       state,
		InitiatedAt: s.now(),
	}

	metrics.OAuthInitiatedTotal.Inc()
	audit.Log(auditService, "oauth_initiate", "", string(prov), string(userType), true, nil)
	return authURL, nil
}

func (s *Service) authorizationURL(ctx context.Context, prov domain.AuthProvider, userType domain.UserType, state string) (string, error) {
	if s.oauthMode == "direct" {
		p := s.providers.Get(prov)
		if p == nil {
			return "", autherrors.NewOAuthProviderError(fmt.Sprintf("unsupported provider %q", prov))
		}
		authURL, err := p.AuthCodeURL(state, s.redirectURL)
		if err != nil {
			log.Error().Err(err).Str("provider", string(prov)).Msg("Failed to build authorization URL")
			return "", autherrors.NewOAuthExchangeFailed("social login is not configured for this provider")
		}
		return authURL, nil
	}

	if prov != domain.AuthProviderGoogle && prov != domain.AuthProviderFacebook {
		return "", autherrors.NewOAuthProviderError(fmt.Sprintf("unsupported provider %q", prov))
	}
	return s.backend.OAuthURL(ctx, prov, userType, state, s.redirectURL)
}

// CallbackParams carries the query parameters the provider redirected
// back with.
type CallbackParams struct {
	Code  string
	State string

	// ProviderError is the provider's error code (user denied consent,
	// etc.), with an optional human-readable description.
	ProviderError            string
	ProviderErrorDescription string

	// LegacyToken is set when the redirect carries a bare token-style
	// parameter instead of an authorization code. Those bypass the state
	// check and are always rejected.
	LegacyToken string
}

// HandleOAuthCallback completes the handshake. The pending transaction is
// consumed on every outcome, success or failure, so a callback can never
// be replayed.
func (s *Service) HandleOAuthCallback(ctx context.Context, sess *domain.Session, params CallbackParams) error {
	txn := sess.OAuthTransaction
	sess.OAuthTransaction = nil

	if params.ProviderError != "" {
		desc := params.ProviderErrorDescription
		if desc == "" {
			desc = params.ProviderError
		}
		metrics.OAuthFailureTotal.Inc()
		audit.Log(auditService, "oauth_callback", "", "", desc, false, nil)
		return autherrors.NewOAuthProviderError(desc)
	}
	if params.LegacyToken != "" {
		metrics.OAuthFailureTotal.Inc()
		return autherrors.NewOAuthStateInvalid("token-style callback parameters are not accepted")
	}
	if txn == nil {
		return autherrors.NewOAuthStateInvalid("no social login in progress")
	}
	if params.Code == "" || params.State == "" {
		metrics.OAuthFailureTotal.Inc()
		return autherrors.NewOAuthStateInvalid("callback is missing code or state")
	}
	if subtle.ConstantTimeCompare([]byte(params.State), []byte(txn.State)) != 1 {
		metrics.OAuthFailureTotal.Inc()
		audit.Log(auditService, "oauth_callback", "", string(txn.Provider), "state mismatch", false, nil)
		return autherrors.NewOAuthStateInvalid("state parameter does not match")
	}
	if s.now().Sub(txn.InitiatedAt) > s.stateTTL {
		metrics.OAuthFailureTotal.Inc()
		return autherrors.NewOAuthStateInvalid("login attempt expired, please try again")
	}

	token, err := s.backend.ExchangeOAuthCode(ctx, txn.Provider, params.Code, txn.UserType, s.redirectURL)
	if err != nil {
		metrics.OAuthFailureTotal.Inc()
		audit.Log(auditService, "oauth_callback", "", string(txn.Provider), "", false, err)
		return err
	}

	claims, err := s.verifyIdentityToken(token)
	if err != nil {
		log.Warn().Err(err).Str("provider", string(txn.Provider)).Msg("Identity token verification failed")
		metrics.OAuthFailureTotal.Inc()
		return autherrors.NewOAuthExchangeFailed("identity token verification failed")
	}

	userData, err := s.ensureUser(ctx, txn, claims)
	if err != nil {
		metrics.OAuthFailureTotal.Inc()
		audit.Log(auditService, "oauth_callback", claims.Email, string(txn.Provider), "", false, err)
		return err
	}

	now := s.now()
	sess.Clear()
	sess.Authenticated = true
	sess.AuthProvider = txn.Provider
	sess.UserType = txn.UserType
	sess.UserData = userData
	sess.AccessToken = token
	sess.CreatedAt = now
	sess.LastActivity = now

	s.refreshRegistrationState(ctx, sess)

	metrics.LoginSuccessTotal.Inc()
	metrics.ActiveSessionsGauge.Inc()
	audit.Log(auditService, "oauth_callback", claims.Email, string(txn.Provider), string(txn.UserType), true, nil)
	return nil
}

// identityClaims is the payload of the HMAC-signed token the backend
// issues after a successful code exchange.
type identityClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Provider  string `json:"provider"`
	UserType  string `json:"user_type"`
	jwt.RegisteredClaims
}

func (s *Service) verifyIdentityToken(token string) (*identityClaims, error) {
	claims := &identityClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.claimsKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("identity token has no email claim")
	}
	return claims, nil
}

// ensureUser looks the OAuth identity up in the role's user table and
// creates a minimal record for first-time social logins.
func (s *Service) ensureUser(ctx context.Context, txn *domain.OAuthTransaction, claims *identityClaims) (map[string]any, error) {
	exists, userData, err := s.backend.CheckExistence(ctx, claims.Email, txn.UserType.Table())
	if err != nil {
		return nil, err
	}
	if exists {
		return userData, nil
	}

	log.Info().Str("provider", string(txn.Provider)).Msg("First social login, creating user record")
	return s.backend.Register(ctx, map[string]any{
		"user_type":     string(txn.UserType),
		"email":         claims.Email,
		"first_name":    claims.FirstName,
		"last_name":     claims.LastName,
		"auth_provider": string(txn.Provider),
	})
}

// refreshRegistrationState asks the backend whether the user has completed
// the role-specific registration. Failures leave the session in the
// conservative unregistered state.
func (s *Service) refreshRegistrationState(ctx context.Context, sess *domain.Session) {
	status, err := s.backend.RegistrationStatus(ctx, sess.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("Registration status check failed after login")
		return
	}
	sess.IsRegistered = status.IsRegistered
	if t := domain.UserType(status.RegistrationType); t.Valid() {
		sess.UserType = t
	}
}

// CheckAuthentication reports whether the session is live. An expired
// session is reset to its anonymous state as a side effect.
func (s *Service) CheckAuthentication(ctx context.Context, sess *domain.Session) bool {
	if !sess.Authenticated {
		return false
	}
	if sess.Expired(s.sessionTimeout, s.now()) {
		email := sess.Email()
		sess.Clear()
		metrics.ActiveSessionsGauge.Dec()
		audit.Log(auditService, "session_expired", email, "", "", true, nil)
		return false
	}
	sess.LastActivity = s.now()
	return true
}

// Logout resets the session to its anonymous state. Idempotent.
func (s *Service) Logout(ctx context.Context, sess *domain.Session) {
	if !sess.Authenticated {
		sess.Clear()
		return
	}
	email := sess.Email()
	sess.Clear()
	metrics.ActiveSessionsGauge.Dec()
	audit.Log(auditService, "logout", email, "", "", true, nil)
}

// RequireAuthentication is the guard for protected routes.
func (s *Service) RequireAuthentication(ctx context.Context, sess *domain.Session) error {
	if !s.CheckAuthentication(ctx, sess) {
		return autherrors.NewAuthenticationRequired()
	}
	return nil
}

// RequireRole guards routes that are limited to one user type.
func (s *Service) RequireRole(ctx context.Context, sess *domain.Session, role domain.UserType) error {
	if err := s.RequireAuthentication(ctx, sess); err != nil {
		return err
	}
	if sess.UserType != role {
		return autherrors.NewRoleMismatch(string(role))
	}
	return nil
}
