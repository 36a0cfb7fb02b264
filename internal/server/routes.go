package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health" || c.Path() == "/metrics"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	if cfg.SwapRateLimit <= 0 {
		cfg.SwapRateLimit = 5
	}
	if cfg.SwapRateBurst <= 0 {
		cfg.SwapRateBurst = 10
	}
	swapLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.SwapRateLimit),
		Burst:     cfg.SwapRateBurst,
		ExpiresIn: 2 * time.Minute,
	}))

	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	pools := v1.Group("/pools")
	pools.GET("", h.ListPools)
	pools.GET("/:seed", h.GetPool)
	pools.PUT("/:seed/lock", h.SetPoolLock)
	pools.GET("/:seed/quote", h.Quote)
	pools.GET("/:seed/quote/exact-out", h.QuoteExactOut)
	pools.POST("/:seed/swap", h.Swap, swapLimiter)

	v1.GET("/accounts/:owner/:mint", h.Account)

	if h.Recent != nil {
		v1.GET("/swaps/recent", h.RecentSwaps)
	}
	if cfg.DevMode {
		v1.POST("/dev/mint", h.DevMint)
	}

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
