package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "catalog_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = TokenExpiry
)

type handler struct {
	authService *Service
}

func buildMeResponse(user *models.User) MeResponse {
	resp := MeResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		RoleID:       user.RoleID,
		Capabilities: []string{},
	}
	if user.Role != nil {
		resp.RoleName = user.Role.Name
		for _, p := range user.Role.Permissions {
			resp.Capabilities = append(resp.Capabilities, p.Capability)
		}
	}
	return resp
}

func setSessionCookie(c echo.Context, value string, maxAge time.Duration) {
	age := int(maxAge.Seconds())
	if value == "" {
		age = -1
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   age,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Username, params.Password)
	if err != nil {
		logger.FromContext(ctx).Info("login failed", logger.Data{"username": params.Username})
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	setSessionCookie(c, token, CookieMaxAge)

	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}

func (h *handler) logout(c echo.Context) error {
	setSessionCookie(c, "", 0)
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"}))
}

// me returns the current user. Authenticate has already resolved it.
func (h *handler) me(c echo.Context) error {
	user, _ := UserFromContext(c)
	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(user)))
}

// status reports whether the app still needs its first admin.
func (h *handler) status(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.authService.CountUsers(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, StatusResponse{
		NeedsSetup: count == 0,
	}))
}

func (h *handler) setup(c echo.Context) error {
	ctx := c.Request().Context()

	params := SetupPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.CreateFirstAdmin(ctx, params.Username, params.Email, params.Password)
	if err != nil {
		return err
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}
	setSessionCookie(c, token, CookieMaxAge)

	logger.FromContext(ctx).Info("initial admin created", logger.Data{"user_id": user.ID})

	return errors.WithStack(c.JSON(http.StatusCreated, buildMeResponse(user)))
}
