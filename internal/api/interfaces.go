// interfaces.go - Handler interface definitions
package api

import "github.com/labstack/echo/v4"

// HealthHandler reports liveness and storage status
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// UploadHandler accepts files for later analysis
type UploadHandler interface {
	HandleUpload(c echo.Context) error
	HandleGetUpload(c echo.Context) error
}

// SyncHandler stores and inspects client-synced file data
type SyncHandler interface {
	HandleSyncStorage(c echo.Context) error
	HandleGetSynced(c echo.Context) error
	HandleDebugStorage(c echo.Context) error
}
