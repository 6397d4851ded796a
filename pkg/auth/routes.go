package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/errcodes"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// RegisterRoutes registers the auth routes and returns the middleware the
// rest of the server authenticates with.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config) *Middleware {
	authService := NewService(db, cfg.JWTSecret)
	authMiddleware := NewMiddleware(authService)

	h := &handler{
		authService: authService,
	}

	limiter := loginRateLimiter(cfg)

	g := e.Group("/auth")
	g.POST("/login", h.login, limiter)
	g.POST("/logout", h.logout)
	g.GET("/status", h.status)
	g.POST("/setup", h.setup, limiter)
	g.GET("/me", h.me, authMiddleware.Authenticate)

	return authMiddleware
}

// loginRateLimiter throttles credential endpoints per client IP.
func loginRateLimiter(cfg *config.Config) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.LoginRateLimit),
		Burst:     cfg.LoginRateBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(_ echo.Context, _ string, _ error) error {
			return errcodes.TooManyRequests()
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return errcodes.Forbidden("Identifying the client")
		},
	})
}
