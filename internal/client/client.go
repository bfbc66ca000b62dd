// Package client talks to the analysis backend and the file-storage endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 60 * time.Second

// ProgressFunc reports bytes sent out of total.
type ProgressFunc func(sent, total int64)

// SyncResponse is the success body of POST /api/sync-storage.
type SyncResponse struct {
	Message string `json:"message"`
	FileID  string `json:"fileId"`
}

// StorageInfo is the body of GET /api/debug/storage.
type StorageInfo struct {
	TotalFiles int       `json:"totalFiles"`
	FileIDs    []string  `json:"fileIds"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client is an HTTP client for the backend.
type Client struct {
	baseURL     string
	http        *http.Client
	uploadField string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithUploadField sets the multipart field name used for uploads.
func WithUploadField(name string) Option {
	return func(c *Client) { c.uploadField = name }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: DefaultTimeout},
		uploadField: "file",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze requests analysis of an uploaded file.
func (c *Client) Analyze(ctx context.Context, fileID string) (*models.AnalysisResponse, error) {
	const op = "analyze"
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%s: file id: %w", op, ErrMissingData)
	}

	req, err := c.newRequest(ctx, op, http.MethodPost, "/api/analyze/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, err
	}

	var out models.AnalysisResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncStorage pushes file data to the server-side store.
func (c *Client) SyncStorage(ctx context.Context, fileID string, fileData any) (*SyncResponse, error) {
	const op = "sync storage"
	if strings.TrimSpace(fileID) == "" || fileData == nil {
		return nil, fmt.Errorf("%s: fileId and fileData: %w", op, ErrMissingData)
	}

	body, err := json.Marshal(map[string]any{"fileId": fileID, "fileData": fileData})
	if err != nil {
		return nil, &SetupError{Op: op, Err: err}
	}
	req, err := c.newRequest(ctx, op, http.MethodPost, "/api/sync-storage", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out SyncResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DebugStorage lists what the server-side store holds.
func (c *Client) DebugStorage(ctx context.Context) (*StorageInfo, error) {
	const op = "debug storage"
	req, err := c.newRequest(ctx, op, http.MethodGet, "/api/debug/storage", nil)
	if err != nil {
		return nil, err
	}

	var out StorageInfo
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile streams the file at path to POST /api/upload as multipart form
// data and returns the server-assigned metadata.
func (c *Client) UploadFile(ctx context.Context, path string, progress ProgressFunc) (*models.FileMetadata, error) {
	const op = "upload"
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%s: file path: %w", op, ErrMissingData)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &SetupError{Op: op, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &SetupError{Op: op, Err: err}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(c.uploadField, filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := &countingReader{r: f, total: info.Size(), progress: progress}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, op, http.MethodPost, "/api/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.FileMetadata
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) newRequest(ctx context.Context, op, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &SetupError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ResponseError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: "invalid response body",
			Details: err.Error(),
		}
	}
	return nil
}

// errorBody accepts both {message, error, details} and {detail} shapes.
type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
	Detail  json.RawMessage `json:"detail"`
}

func decodeError(op string, status int, data []byte) *ResponseError {
	re := &ResponseError{Op: op, Status: status}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		re.Message = strings.TrimSpace(string(data))
		if re.Message == "" {
			re.Message = http.StatusText(status)
		}
		return re
	}

	re.Message = body.Message
	re.Code = body.Error
	re.Details = rawText(body.Details)
	if detail := rawText(body.Detail); detail != "" {
		if re.Message == "" {
			re.Message = detail
		} else if re.Details == "" {
			re.Details = detail
		}
	}
	if re.Message == "" && re.Code != "" {
		re.Message = re.Code
	}
	if re.Message == "" {
		re.Message = http.StatusText(status)
	}
	return re
}

// rawText returns a JSON string's value, or the raw JSON for anything else.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type countingReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.progress != nil {
			c.progress(c.sent, c.total)
		}
	}
	return n, err
}
