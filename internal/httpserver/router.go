package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mini_online_store/internal/metrics"
	"github.com/Skotchmaster/mini_online_store/internal/permissions"
	"github.com/Skotchmaster/mini_online_store/internal/tokens"
)

const APIPrefix = "/api/v1/users"

type Deps struct {
	AuthHandler *AuthHTTP
	Tokens      *tokens.Service
	Metrics     *metrics.Metrics
	// Ready is checked by /health/ready; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	if e.Renderer == nil {
		e.Renderer = NewRenderer()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	g := e.Group(APIPrefix)
	if d.Metrics != nil {
		g.Use(d.Metrics.Middleware())
	}

	h := d.AuthHandler
	g.POST("/register", h.Register)
	g.POST("/resend-activation-email", h.ResendActivation)
	g.GET("/verify-email/:uid/:token", h.VerifyEmail)
	g.POST("/login", h.Login)
	g.POST("/token/refresh", h.Refresh)
	g.GET("/session-expired", h.SessionExpired)

	private := g.Group("")
	private.Use(BearerAuth(d.Tokens))
	private.POST("/logout", h.Logout)
	private.GET("/me", h.Me, RequirePermission(h.Svc, permissions.IsUserOrHigher, permissions.IsEmailVerified))
}
