package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig holds the cross-origin settings exposed to callers, a thin
// wrapper over gin-contrib/cors.Config trimmed to the fields the endpoint
// HTTP layer actually needs to vary.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// CORS returns a middleware enforcing the given cross-origin policy. A nil
// config falls back to a same-origin-only default (no origins allowed),
// matching the deny-by-default posture the endpoint dispatcher uses
// everywhere else.
//
// Example:
//
//	router.Use(middleware.CORS(&middleware.CORSConfig{
//		AllowOrigins:     []string{"https://app.example.com"},
//		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
//		AllowHeaders:     []string{"Authorization", "Content-Type"},
//		AllowCredentials: true,
//	}))
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = &CORSConfig{}
	}

	cfg := cors.Config{
		AllowOrigins:     config.AllowOrigins,
		AllowMethods:     config.AllowMethods,
		AllowHeaders:     config.AllowHeaders,
		ExposeHeaders:    config.ExposeHeaders,
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Request-Id"}
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 12 * time.Hour
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(cfg)
}
