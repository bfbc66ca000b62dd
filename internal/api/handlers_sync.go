// handlers_sync.go - Client data sync and storage introspection handlers
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/storage"
)

// SyncHandlerImpl implements the SyncHandler interface
type SyncHandlerImpl struct {
	store storage.Store
	now   func() time.Time
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(store storage.Store) SyncHandler {
	return &SyncHandlerImpl{
		store: store,
		now:   time.Now,
	}
}

type syncRequest struct {
	FileID   string          `json:"fileId"`
	FileData json.RawMessage `json:"fileData"`
}

func (r *syncRequest) validate() error {
	if strings.TrimSpace(r.FileID) == "" {
		return NewMissingDataError("fileId and fileData are required")
	}
	if d := bytes.TrimSpace(r.FileData); len(d) == 0 || bytes.Equal(d, []byte("null")) {
		return NewMissingDataError("fileId and fileData are required")
	}
	return nil
}

type syncResponse struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

type storageInfo struct {
	TotalFiles int       `json:"totalFiles"`
	FileIDs    []string  `json:"fileIds"`
	Timestamp  time.Time `json:"timestamp"`
}

// HandleSyncStorage stores fileData under fileId
func (h *SyncHandlerImpl) HandleSyncStorage(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	if err := h.store.Put(req.FileID, req.FileData); err != nil {
		fmt.Printf("[SyncStore %s] Write failed: %v\n", req.FileID, err)
		return NewSyncError(err)
	}

	fmt.Printf("[SyncStore %s] Synced %d bytes\n", req.FileID, len(req.FileData))
	return c.JSON(http.StatusOK, syncResponse{
		Message: "Data synced successfully",
		FileID:  req.FileID,
	})
}

// HandleGetSynced returns the data last synced for a file
func (h *SyncHandlerImpl) HandleGetSynced(c echo.Context) error {
	id := c.Param("fileId")
	data, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("File", id)
		}
		return NewInternalError("failed to read synced data", err)
	}
	return c.JSON(http.StatusOK, syncRequest{FileID: id, FileData: data})
}

// HandleDebugStorage lists the ids that have synced data
func (h *SyncHandlerImpl) HandleDebugStorage(c echo.Context) error {
	ids := h.store.List()
	return c.JSON(http.StatusOK, storageInfo{
		TotalFiles: len(ids),
		FileIDs:    ids,
		Timestamp:  h.now().UTC(),
	})
}
