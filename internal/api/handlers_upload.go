// handlers_upload.go - File upload handlers
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/storage"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store     storage.Store
	fieldName string
}

// NewUploadHandler creates a new upload handler reading the multipart field fieldName
func NewUploadHandler(store storage.Store, fieldName string) UploadHandler {
	if fieldName == "" {
		fieldName = "file"
	}
	return &UploadHandlerImpl{
		store:     store,
		fieldName: fieldName,
	}
}

// HandleUpload accepts a multipart/form-data file and returns its metadata
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	file, err := c.FormFile(h.fieldName)
	if err != nil {
		return NewMissingDataError(fmt.Sprintf("no file provided in field %q", h.fieldName))
	}

	src, err := file.Open()
	if err != nil {
		return NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	meta, err := h.store.SaveUpload(file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		return NewUploadError(err)
	}

	fmt.Printf("[Upload %s] Stored %s (%d bytes)\n", meta.FileID, meta.Filename, meta.SizeBytes)
	return c.JSON(http.StatusOK, meta)
}

// HandleGetUpload returns the metadata of an uploaded file
func (h *UploadHandlerImpl) HandleGetUpload(c echo.Context) error {
	id := c.Param("fileId")
	meta, err := h.store.GetUpload(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("File", id)
		}
		return NewInternalError("failed to read file metadata", err)
	}
	return c.JSON(http.StatusOK, meta)
}
