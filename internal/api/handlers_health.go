// handlers_health.go - Liveness and storage status
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/storage"
)

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Storage     string `json:"storage"`
	SyncedFiles int    `json:"syncedFiles"`
}

// HealthHandlerImpl reports the server version and how many files hold synced data.
type HealthHandlerImpl struct {
	store   storage.Store
	version string
}

// NewHealthHandler creates a health handler. store may be nil when the server
// runs without durable storage.
func NewHealthHandler(store storage.Store, version string) HealthHandler {
	return &HealthHandlerImpl{store: store, version: version}
}

func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := healthResponse{Status: "ok", Version: h.version, Storage: "none"}
	if h.store != nil {
		resp.Storage = "ready"
		resp.SyncedFiles = h.store.Count()
	}
	return c.JSON(http.StatusOK, resp)
}
