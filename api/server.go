// Package api is the gateway's HTTP surface: the echo server, the session
// cookie middleware, and the handlers the page layer talks to.
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/haven-platform/gateway/auth"
	"github.com/haven-platform/gateway/config"
	"github.com/haven-platform/gateway/domain"
	"github.com/haven-platform/gateway/registration"
	"github.com/haven-platform/gateway/session"
)

// API holds the handler dependencies.
type API struct {
	cfg     *config.GatewayConfig
	store   session.Store
	auth    *auth.Service
	reg     *registration.Service
	cookies session.CookieOptions
}

// New initializes the gateway API.
func New(cfg *config.GatewayConfig, store session.Store, authSvc *auth.Service, regSvc *registration.Service) *API {
	return &API{
		cfg:   cfg,
		store: store,
		auth:  authSvc,
		reg:   regSvc,
		cookies: session.CookieOptions{
			Secure: strings.HasPrefix(cfg.FrontendBaseURL, "https://"),
		},
	}
}

// NewEcho builds the echo instance with the gateway's middleware chain and
// routes registered.
func (a *API) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))

	a.RegisterRoutes(e)
	return e
}

// RegisterRoutes registers the gateway routes.
func (a *API) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", a.HealthHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	authGroup := e.Group("/auth", a.SessionMiddleware)
	authGroup.POST("/login", a.LoginHandler)
	authGroup.GET("/oauth/:provider/start", a.OAuthStartHandler)
	authGroup.GET("/oauth/callback", a.OAuthCallbackHandler)
	authGroup.POST("/logout", a.LogoutHandler)
	authGroup.GET("/session", a.SessionInfoHandler)

	regGroup := e.Group("/registration", a.SessionMiddleware)
	regGroup.POST("/type", a.RegistrationTypeHandler)
	regGroup.POST("/submit", a.RegistrationSubmitHandler)
	regGroup.GET("/status", a.RegistrationStatusHandler, a.RequireAuth)
}

// HealthHandler answers liveness probes.
func (a *API) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// RequireRole returns middleware that rejects sessions authenticated under
// a different role. Downstream route groups (campaign management, donor
// tools) mount it per role.
func (a *API) RequireRole(role domain.UserType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			if err := a.auth.RequireRole(c.Request().Context(), sess, role); err != nil {
				return renderError(c, err)
			}
			return next(c)
		}
	}
}
