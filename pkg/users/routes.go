package users

import (
	"github.com/labstack/echo/v4"
	"github.com/locallibrary/catalog/pkg/auth"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the user management routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{
		userService: NewService(db),
	}

	users := e.Group("/users")
	users.Use(authMiddleware.Authenticate)

	manage := authMiddleware.RequireCapability(models.CapabilityCanManageUsers)

	users.GET("", h.list, manage)
	users.GET("/:id", h.retrieve, manage)
	users.POST("", h.create, manage)
	users.POST("/:id", h.update, manage)
	users.DELETE("/:id", h.delete, manage)

	// Capability is checked in the handler so users can reset their own.
	users.POST("/:id/reset-password", h.resetPassword)
}
