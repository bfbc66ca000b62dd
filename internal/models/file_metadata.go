package models

import "time"

// FileMetadata is the server-side description of an uploaded file.
// It is created once the upload completes and never mutated afterwards.
type FileMetadata struct {
	FileID      string            `json:"file_id" msgpack:"file_id"`
	Filename    string            `json:"filename" msgpack:"filename"`
	ContentType string            `json:"content_type" msgpack:"content_type"`
	SizeBytes   int64             `json:"size_bytes" msgpack:"size_bytes"`
	Columns     []string          `json:"columns" msgpack:"columns"`
	InferSchema map[string]string `json:"infer_schema" msgpack:"infer_schema"`
	UploadedAt  time.Time         `json:"uploaded_at" msgpack:"uploaded_at"`
}

// SelectedFile is the local file handle chosen for upload. It is never persisted.
type SelectedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}
