package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/mini_online_store/internal/service"
	"github.com/Skotchmaster/mini_online_store/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	if _, err := h.Svc.Register(c.Request().Context(), req); err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Registration successful. Please check your email to confirm your account.",
	})
}

func (h *AuthHTTP) ResendActivation(c echo.Context) error {
	var req service.ResendInput
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	if err := h.Svc.ResendActivation(c.Request().Context(), req); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Activation email sent"})
}

func (h *AuthHTTP) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()

	a, err := h.Svc.VerifyEmail(ctx, c.Param("uid"), c.Param("token"))
	if errors.Is(err, service.ErrActivationFailed) {
		return c.Render(http.StatusBadRequest, pageActivationFailed, nil)
	}
	if err != nil {
		return httpError(c, err)
	}

	logging.FromContext(ctx).Info("activation_page", "user_id", a.ID)
	return c.Render(http.StatusOK, pageActivationSuccess, echo.Map{"Username": a.Username})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	var req service.LoginInput
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	res, err := h.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access":  res.Access,
		"refresh": res.Refresh,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	claims, err := ClaimsFrom(c)
	if err != nil {
		return err
	}

	var req service.LogoutInput
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}

	if err := h.Svc.Logout(c.Request().Context(), claims.UserID, req); err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&req); err != nil {
		return badBody(c, err)
	}
	if req.Refresh == "" {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"errors": map[string][]string{"refresh": {"This field is required."}},
		})
	}

	access, _, err := h.Svc.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// Me expects RequirePermission to have loaded the account.
func (h *AuthHTTP) Me(c echo.Context) error {
	a, ok := AccountFrom(c)
	if !ok {
		claims, err := ClaimsFrom(c)
		if err != nil {
			return err
		}
		if a, err = h.Svc.Me(c.Request().Context(), claims.UserID); err != nil {
			return httpError(c, err)
		}
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AuthHTTP) SessionExpired(c echo.Context) error {
	return c.Render(http.StatusOK, pageSessionExpired, nil)
}
