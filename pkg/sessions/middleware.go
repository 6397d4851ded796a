package sessions

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/pkg/errors"
)

// CookieName carries the visitor session id.
const CookieName = "catalog_visit"

const contextKeySession = "session_id"

type Middleware struct {
	sessionService *Service
}

func NewMiddleware(sessionService *Service) *Middleware {
	return &Middleware{sessionService}
}

// Attach makes sure every request has a live visitor session, starting a new
// one when the cookie is missing, unknown, or expired.
func (m *Middleware) Attach(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
			_, err := m.sessionService.RetrieveSession(ctx, cookie.Value)
			if err == nil {
				c.Set(contextKeySession, cookie.Value)
				return next(c)
			}
			if !errors.Is(err, errcodes.NotFound("Session")) {
				return errors.WithStack(err)
			}
		}

		session, err := m.sessionService.CreateSession(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		c.SetCookie(&http.Cookie{
			Name:     CookieName,
			Value:    session.ID,
			Path:     "/",
			MaxAge:   int(m.sessionService.maxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(contextKeySession, session.ID)
		return next(c)
	}
}

// IDFromContext returns the session id Attach stored on the request.
func IDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(contextKeySession).(string)
	return id, ok && id != ""
}
