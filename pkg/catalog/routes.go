package catalog

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/sessions"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the home page, which counts visits per visitor
// session.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config) {
	sessionService := sessions.NewService(db, cfg.SessionMaxAge)
	h := &handler{
		catalogService: NewService(db, cfg),
		sessionService: sessionService,
	}

	e.GET("/", h.index, sessions.NewMiddleware(sessionService).Attach)
}
