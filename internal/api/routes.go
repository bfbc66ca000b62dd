// routes.go - Route and middleware registration
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store       storage.Store
	UploadField string
	Version     string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Upload UploadHandler
	Sync   SyncHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Store, deps.Version),
		Upload: NewUploadHandler(deps.Store, deps.UploadField),
		Sync:   NewSyncHandler(deps.Store),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)

	apiGroup.POST("/upload", handlers.Upload.HandleUpload)
	apiGroup.GET("/files/:fileId", handlers.Upload.HandleGetUpload)

	apiGroup.POST("/sync-storage", handlers.Sync.HandleSyncStorage)
	apiGroup.GET("/sync-storage/:fileId", handlers.Sync.HandleGetSynced)
	apiGroup.GET("/debug/storage", handlers.Sync.HandleDebugStorage)
}

// MiddlewareConfig selects the optional middleware
type MiddlewareConfig struct {
	RequestLogging   bool
	ShowErrorDetails bool
	BodyLimit        string
	EnableCORS       bool
	AllowOrigins     []string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	e.HTTPErrorHandler = NewErrorHandler(cfg.ShowErrorDetails)

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.RequestLogging {
				return true
			}
			return strings.HasSuffix(c.Request().URL.Path, "/health")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := cfg.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// NewServer builds an Echo instance with middleware and routes registered
func NewServer(deps *Dependencies, cfg MiddlewareConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	SetupMiddleware(e, cfg)
	RegisterRoutes(e, NewHandlers(deps))
	return e
}
