package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/haven-platform/gateway/domain"
	autherrors "github.com/haven-platform/gateway/errors"
	"github.com/haven-platform/gateway/session"
)

const sessionContextKey = "haven.session"

// SessionFrom returns the request's session. Only valid on routes behind
// SessionMiddleware.
func SessionFrom(c echo.Context) *domain.Session {
	sess, _ := c.Get(sessionContextKey).(*domain.Session)
	return sess
}

// SessionMiddleware loads the caller's session from the cookie, creating
// a fresh anonymous one when the cookie is absent or stale, and persists
// the (possibly mutated) session after the handler returns.
func (a *API) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var sess *domain.Session
		if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
			sess, err = a.store.Get(ctx, cookie.Value)
			if err != nil {
				log.Warn().Err(err).Msg("Session lookup failed")
				return renderError(c, autherrors.NewServiceUnavailable("session store unavailable"))
			}
		}

		if sess == nil {
			id, err := session.GenerateID()
			if err != nil {
				log.Error().Err(err).Msg("Failed to generate session ID")
				return renderError(c, autherrors.NewServiceUnavailable("could not create session"))
			}
			sess = domain.NewSession(id)
			session.SetCookie(c.Response(), sess.ID, time.Now().Add(a.cfg.SessionTimeout()), a.cookies)
		}

		c.Set(sessionContextKey, sess)

		err := next(c)

		if putErr := a.store.Put(ctx, sess); putErr != nil {
			log.Error().Err(putErr).Str("session_id", sess.ID).Msg("Failed to persist session")
		}
		return err
	}
}

// RequireAuth guards protected routes. Expired sessions are reset by the
// check and answered with 401.
func (a *API) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess := SessionFrom(c)
		if err := a.auth.RequireAuthentication(c.Request().Context(), sess); err != nil {
			return renderError(c, err)
		}
		return next(c)
	}
}

// renderError maps taxonomy errors onto HTTP responses. The AuthError
// itself is the response body; anything else is an opaque 500.
func renderError(c echo.Context, err error) error {
	var ae *autherrors.AuthError
	if !errors.As(err, &ae) {
		log.Error().Err(err).Msg("Unclassified handler error")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal_error",
		})
	}

	if ae.Kind == autherrors.RateLimited && ae.RetryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(ae.RetryAfter))
	}
	return c.JSON(autherrors.HTTPStatus(ae.Kind), ae)
}
