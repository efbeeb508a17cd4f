package httpserver

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mini_online_store/internal/models"
	"github.com/Skotchmaster/mini_online_store/internal/permissions"
	"github.com/Skotchmaster/mini_online_store/internal/service"
	"github.com/Skotchmaster/mini_online_store/internal/tokens"
	"github.com/Skotchmaster/mini_online_store/pkg/logging"
)

const (
	claimsKey  = "user"
	accountKey = "account"
)

var errNotAuthenticated = echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
	"message": "Authentication credentials were not provided.",
})

// BearerAuth accepts "Authorization: Bearer <access>" and stores *tokens.Claims under "user".
func BearerAuth(ts *tokens.Service) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(_ echo.Context, auth string) (interface{}, error) {
			return ts.ValidateAccess(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context())
			switch {
			case errors.Is(err, tokens.ErrTokenExpired):
				l.Info("auth_failed", "status", 401, "reason", "access token expired")
				return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "Token is expired", "code": tokenNotValid})
			case errors.Is(err, tokens.ErrTokenInvalid):
				l.Info("auth_failed", "status", 401, "reason", "access token invalid")
				return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "Token is invalid or expired", "code": tokenNotValid})
			default:
				return errNotAuthenticated
			}
		},
	})
}

func ClaimsFrom(c echo.Context) (*tokens.Claims, error) {
	claims, ok := c.Get(claimsKey).(*tokens.Claims)
	if !ok || claims == nil {
		return nil, errNotAuthenticated
	}
	return claims, nil
}

func AccountFrom(c echo.Context) (*models.Account, bool) {
	a, ok := c.Get(accountKey).(*models.Account)
	return a, ok && a != nil
}

// RequirePermission loads the caller's account and checks every predicate against it.
// It must run after BearerAuth.
func RequirePermission(svc *service.AuthService, preds ...permissions.Predicate) echo.MiddlewareFunc {
	check := permissions.All(preds...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ClaimsFrom(c)
			if err != nil {
				return err
			}
			a, err := svc.Me(c.Request().Context(), claims.UserID)
			if errors.Is(err, service.ErrNotFound) {
				return errNotAuthenticated
			}
			if err != nil {
				return httpError(c, err)
			}

			op := permissions.OperationFromMethod(c.Request().Method)
			if !check(permissions.PrincipalFor(a), op) {
				logging.FromContext(c.Request().Context()).Info("permission_denied",
					"status", 403, "user_id", a.ID, "operation", op.String())
				return echo.NewHTTPError(http.StatusForbidden, echo.Map{
					"message": "You do not have permission to perform this action.",
				})
			}

			c.Set(accountKey, a)
			return next(c)
		}
	}
}
