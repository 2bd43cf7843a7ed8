package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/haven-platform/gateway/auth"
	"github.com/haven-platform/gateway/domain"
	autherrors "github.com/haven-platform/gateway/errors"
	"github.com/haven-platform/gateway/registration"
	"github.com/haven-platform/gateway/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool                     `json:"authenticated"`
	AuthProvider  string                   `json:"auth_provider,omitempty"`
	UserType      string                   `json:"user_type,omitempty"`
	IsRegistered  bool                     `json:"is_registered"`
	TokenPresent  bool                     `json:"token_present"`
	User          map[string]any           `json:"user,omitempty"`
	Next          registration.Destination `json:"next,omitempty"`
}

func (a *API) sessionResponse(c echo.Context, sess *domain.Session) sessionResponse {
	resp := sessionResponse{
		Authenticated: sess.Authenticated,
		AuthProvider:  string(sess.AuthProvider),
		UserType:      string(sess.UserType),
		IsRegistered:  sess.IsRegistered,
		TokenPresent:  sess.AccessToken != "",
		User:          sess.UserData,
	}
	if sess.Authenticated {
		resp.Next = a.reg.Route(c.Request().Context(), sess)
	}
	return resp
}

// LoginHandler authenticates with email and password.
func (a *API) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return renderError(c, autherrors.NewInvalidCredentials())
	}
	if req.Email == "" || req.Password == "" {
		return renderError(c, autherrors.NewInvalidCredentials())
	}

	sess := SessionFrom(c)
	if err := a.auth.Login(c.Request().Context(), sess, req.Email, req.Password); err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, a.sessionResponse(c, sess))
}

// OAuthStartHandler begins the third-party login handshake and returns
// the authorization URL the page layer redirects the user to.
func (a *API) OAuthStartHandler(c echo.Context) error {
	prov := domain.AuthProvider(c.Param("provider"))
	userType := domain.UserType(c.QueryParam("user_type"))

	sess := SessionFrom(c)
	authURL, err := a.auth.InitiateOAuth(c.Request().Context(), sess, prov, userType)
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"auth_url": authURL})
}

// OAuthCallbackHandler completes the handshake after the provider
// redirected back.
func (a *API) OAuthCallbackHandler(c echo.Context) error {
	params := auth.CallbackParams{
		Code:                     c.QueryParam("code"),
		State:                    c.QueryParam("state"),
		ProviderError:            c.QueryParam("error"),
		ProviderErrorDescription: c.QueryParam("error_description"),
	}
	// Legacy token-style redirects carry the identity directly in the
	// query string. They bypass the state check and are rejected.
	if t := c.QueryParam("auth"); t != "" {
		params.LegacyToken = t
	} else if t := c.QueryParam("token"); t != "" {
		params.LegacyToken = t
	}

	sess := SessionFrom(c)
	if err := a.auth.HandleOAuthCallback(c.Request().Context(), sess, params); err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, a.sessionResponse(c, sess))
}

// LogoutHandler resets the session and expires the cookie.
func (a *API) LogoutHandler(c echo.Context) error {
	sess := SessionFrom(c)
	a.auth.Logout(c.Request().Context(), sess)
	session.ClearCookie(c.Response(), a.cookies)
	return c.NoContent(http.StatusNoContent)
}

// SessionInfoHandler reports the session's current state. Expiry is
// evaluated lazily here, so polling this endpoint is what ages sessions
// out for the page layer.
func (a *API) SessionInfoHandler(c echo.Context) error {
	sess := SessionFrom(c)
	a.auth.CheckAuthentication(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, a.sessionResponse(c, sess))
}

type registrationTypeRequest struct {
	UserType string `json:"user_type"`
}

// RegistrationTypeHandler records the role choice on the session.
func (a *API) RegistrationTypeHandler(c echo.Context) error {
	var req registrationTypeRequest
	if err := c.Bind(&req); err != nil {
		return renderError(c, autherrors.NewRegistrationRejected("invalid request body"))
	}

	sess := SessionFrom(c)
	if err := a.reg.SelectType(sess, domain.UserType(req.UserType)); err != nil {
		return renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"user_type": string(sess.UserType)})
}

type submitResponse struct {
	Registered bool     `json:"registered"`
	Violations []string `json:"violations,omitempty"`
}

// RegistrationSubmitHandler validates and submits the role-specific
// registration form. Validation failures come back as a 400 with the full
// violation list; the backend is only contacted on a clean form.
func (a *API) RegistrationSubmitHandler(c echo.Context) error {
	sess := SessionFrom(c)

	var (
		violations []string
		err        error
	)
	switch sess.UserType {
	case domain.UserTypeIndividual:
		var form registration.IndividualForm
		if bindErr := c.Bind(&form); bindErr != nil {
			return renderError(c, autherrors.NewRegistrationRejected("invalid request body"))
		}
		violations, err = a.reg.SubmitIndividual(c.Request().Context(), sess, &form)
	case domain.UserTypeOrganization:
		var form registration.OrganizationForm
		if bindErr := c.Bind(&form); bindErr != nil {
			return renderError(c, autherrors.NewRegistrationRejected("invalid request body"))
		}
		violations, err = a.reg.SubmitOrganization(c.Request().Context(), sess, &form)
	default:
		return renderError(c, autherrors.NewRegistrationRejected("please choose the individual or organization role"))
	}

	if err != nil {
		return renderError(c, err)
	}
	if len(violations) > 0 {
		return c.JSON(http.StatusBadRequest, submitResponse{Violations: violations})
	}
	return c.JSON(http.StatusCreated, submitResponse{Registered: true})
}

// RegistrationStatusHandler reports where the authenticated user stands
// in the onboarding flow.
func (a *API) RegistrationStatusHandler(c echo.Context) error {
	sess := SessionFrom(c)
	next := a.reg.Route(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, map[string]any{
		"is_registered": sess.IsRegistered,
		"user_type":     string(sess.UserType),
		"next":          next,
	})
}
