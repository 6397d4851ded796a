package loans

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the loan actions on copies plus the borrowed
// listings.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	h := &handler{
		config:      cfg,
		loanService: NewService(db, cfg),
	}

	librarian := []echo.MiddlewareFunc{
		authMiddleware.Authenticate,
		authMiddleware.RequireCapability(models.CapabilityCanMarkReturned),
	}

	g := e.Group("/bookinstances/:id")
	g.GET("/renew", h.proposeRenewal, librarian...)
	g.POST("/renew", h.renew, librarian...)
	g.POST("/checkout", h.checkOut, librarian...)
	g.POST("/reserve", h.reserve, librarian...)
	g.POST("/return", h.returnInstance, librarian...)
	g.POST("/available", h.markAvailable, librarian...)
	g.POST("/maintenance", h.sendToMaintenance, librarian...)

	e.GET("/mybooks", h.myBooks, authMiddleware.Authenticate)
	e.GET("/borrowed", h.allBorrowed, librarian...)
}
