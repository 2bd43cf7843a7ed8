// Package backend is the REST client for the HAVEN crowdfunding backend.
// Every call has a bounded timeout and maps HTTP status codes onto the
// gateway's error taxonomy; callers never see raw transport errors.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haven-platform/gateway/domain"
	autherrors "github.com/haven-platform/gateway/errors"
)

const apiPrefix = "/api/v1"

// Client talks to the crowdfunding backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// submitClient carries the longer timeout used for registration
	// submissions, which the backend processes synchronously.
	submitClient *http.Client
}

// New creates a backend client. timeout bounds regular calls,
// submitTimeout bounds registration submissions.
func New(baseURL string, timeout, submitTimeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		submitClient: &http.Client{Timeout: submitTimeout},
	}
}

// LoginResult is the backend's answer to a successful credential login.
type LoginResult struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         map[string]any `json:"user"`
}

// RegistrationStatus reports whether the authenticated user has completed
// the role-specific registration, as the backend currently sees it.
type RegistrationStatus struct {
	IsRegistered     bool   `json:"is_registered"`
	Role             string `json:"role"`
	RegistrationType string `json:"registration_type"`
}

// Login exchanges credentials for a token and user profile.
// 401 maps to InvalidCredentials, 403 to AccountSuspended, 429 to
// RateLimited; transport failures map to ServiceUnavailable.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	resp, err := c.post(ctx, c.httpClient, apiPrefix+"/auth/login", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result LoginResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			log.Error().Err(err).Msg("login: failed to decode backend response")
			return nil, autherrors.NewServiceUnavailable("unexpected response from authentication server")
		}
		return &result, nil
	case http.StatusUnauthorized:
		return nil, autherrors.NewInvalidCredentials()
	case http.StatusForbidden:
		return nil, autherrors.NewAccountSuspended()
	case http.StatusTooManyRequests:
		return nil, autherrors.NewRateLimited(retryAfter(resp))
	default:
		log.Warn().Int("status", resp.StatusCode).Msg("login: unexpected backend status")
		return nil, autherrors.NewServiceUnavailable("authentication server error")
	}
}

// OAuthURL asks the backend for the provider's authorization URL.
// A 200 without an auth_url is a broken exchange, not a transport error.
func (c *Client) OAuthURL(ctx context.Context, provider domain.AuthProvider, userType domain.UserType, state, redirectURI string) (string, error) {
	q := url.Values{}
	q.Set("user_type", string(userType))
	q.Set("state", state)
	q.Set("redirect_uri", redirectURI)

	path := fmt.Sprintf("%s/auth/%s/login?%s", apiPrefix, provider, q.Encode())
	resp, err := c.get(ctx, path, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", autherrors.NewOAuthExchangeFailed(detailOf(resp, "failed to initiate social login"))
	}

	var result struct {
		AuthURL string `json:"auth_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.AuthURL == "" {
		return "", autherrors.NewOAuthExchangeFailed("no authentication URL received from server")
	}
	return result.AuthURL, nil
}

// ExchangeOAuthCode trades the authorization code for a signed identity
// token. The caller verifies the token's signature before trusting any
// claim in it.
func (c *Client) ExchangeOAuthCode(ctx context.Context, provider domain.AuthProvider, code string, userType domain.UserType, redirectURI string) (string, error) {
	body := map[string]string{
		"code":         code,
		"user_type":    string(userType),
		"redirect_uri": redirectURI,
	}

	resp, err := c.post(ctx, c.httpClient, fmt.Sprintf("%s/auth/%s/callback", apiPrefix, provider), body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", autherrors.NewOAuthExchangeFailed(detailOf(resp, "authorization code exchange failed"))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.Token == "" {
		return "", autherrors.NewOAuthExchangeFailed("no identity token received from server")
	}
	return result.Token, nil
}

// RegistrationStatus queries the backend for the user's current
// registration state. Never cached: verification status can change out of
// band (admin approval).
func (c *Client) RegistrationStatus(ctx context.Context, bearerToken string) (*RegistrationStatus, error) {
	resp, err := c.get(ctx, apiPrefix+"/auth/registration-status", bearerToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var status RegistrationStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return nil, autherrors.NewServiceUnavailable("unexpected response from authentication server")
		}
		return &status, nil
	case http.StatusUnauthorized:
		return nil, autherrors.NewAuthenticationRequired()
	default:
		return nil, autherrors.NewServiceUnavailable("registration status check failed")
	}
}

// Register submits a role-tagged registration record. 201 returns the
// stored user data; any 4xx is a rejection the user can correct and
// resubmit. Never retried: the backend may treat a second submission as a
// duplicate organization.
func (c *Client) Register(ctx context.Context, payload map[string]any) (map[string]any, error) {
	resp, err := c.post(ctx, c.submitClient, apiPrefix+"/auth/register", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
		var result struct {
			UserData map[string]any `json:"user_data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, autherrors.NewServiceUnavailable("unexpected response from registration endpoint")
		}
		return result.UserData, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, autherrors.NewRegistrationRejected(detailOf(resp, "registration was rejected"))
	default:
		return nil, autherrors.NewServiceUnavailable("registration server error")
	}
}

// CheckExistence asks whether a user with this email exists in the given
// role table.
func (c *Client) CheckExistence(ctx context.Context, email, table string) (bool, map[string]any, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("table", table)

	resp, err := c.get(ctx, apiPrefix+"/users/check-existence?"+q.Encode(), "")
	if err != nil {
		return false, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil, autherrors.NewServiceUnavailable("user existence check failed")
	}

	var result struct {
		Exists   bool           `json:"exists"`
		UserData map[string]any `json:"user_data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, nil, autherrors.NewServiceUnavailable("unexpected response from user existence check")
	}
	return result.Exists, result.UserData, nil
}

func (c *Client) get(ctx context.Context, path, bearerToken string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, autherrors.NewServiceUnavailable("could not build backend request")
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	return c.do(req, c.httpClient)
}

func (c *Client) post(ctx context.Context, client *http.Client, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, autherrors.NewServiceUnavailable("could not encode backend request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, autherrors.NewServiceUnavailable("could not build backend request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, client)
}

func (c *Client) do(req *http.Request, client *http.Client) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL.Path).Msg("backend request failed")
		return nil, autherrors.NewServiceUnavailable("cannot reach the server, please try again")
	}
	return resp, nil
}

// detailOf extracts the backend's {"detail": ...} error message, falling
// back to the given default.
func detailOf(resp *http.Response, fallback string) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fallback
	}

	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	if payload.Message != "" {
		return payload.Message
	}
	return fallback
}

func retryAfter(resp *http.Response) int {
	var seconds int
	if _, err := fmt.Sscanf(resp.Header.Get("Retry-After"), "%d", &seconds); err != nil {
		return 0
	}
	return seconds
}
