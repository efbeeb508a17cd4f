package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mini_online_store/internal/service"
	"github.com/Skotchmaster/mini_online_store/pkg/logging"
)

const tokenNotValid = "token_not_valid"

// httpError maps service errors onto response bodies. Unknown errors are logged and hidden.
func httpError(c echo.Context, err error) error {
	var ce *service.ConflictError
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ce):
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"errors": map[string][]string{ce.Field: {ce.Message()}},
		})
	case errors.As(err, &ve):
		if ve.Message != "" {
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": ve.Message})
		}
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"errors": ve.Fields})
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	case errors.Is(err, service.ErrEmailNotVerified):
		return echo.NewHTTPError(http.StatusForbidden, echo.Map{"message": "Email is not verified"})
	case errors.Is(err, service.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "Token is expired", "code": tokenNotValid})
	case errors.Is(err, service.ErrTokenInvalid):
		return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "Token is invalid or expired", "code": tokenNotValid})
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, echo.Map{"message": "Not found."})
	default:
		logging.FromContext(c.Request().Context()).Error("internal_error",
			"status", http.StatusInternalServerError,
			"path", c.Path(),
			"error", err.Error(),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
	}
}

func badBody(c echo.Context, err error) error {
	logging.FromContext(c.Request().Context()).Warn("bind_failed", "status", http.StatusBadRequest, "error", err.Error())
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": "invalid body"})
}
