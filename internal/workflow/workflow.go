// Package workflow drives the upload → analysis → results → dashboard flow on
// top of the store, the analysis tracker, and the backend client.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/client"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/store"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/tracker"
)

// Backend is the subset of the HTTP client the workflow needs.
type Backend interface {
	UploadFile(ctx context.Context, path string, progress client.ProgressFunc) (*models.FileMetadata, error)
	Analyze(ctx context.Context, fileID string) (*models.AnalysisResponse, error)
	SyncStorage(ctx context.Context, fileID string, fileData any) (*client.SyncResponse, error)
	DebugStorage(ctx context.Context) (*client.StorageInfo, error)
}

// Analysis steps shown while the request is in flight.
const (
	stepRequesting = "Sending file to the analysis service"
	stepComplete   = "Analysis complete"
)

// Grid geometry for newly added charts: two columns of 6 units each.
const (
	gridColumns    = 2
	gridItemWidth  = 6
	gridItemHeight = 4
)

// ErrAnalysisSuperseded is returned by AnalyzeSync when the run was cancelled
// or replaced by a newer one before it settled.
var ErrAnalysisSuperseded = errors.New("analysis was cancelled or superseded")

// DefaultPalette colours charts that do not specify their own.
var DefaultPalette = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#EC4899"}

// Workflow coordinates user actions across the store and the backend.
type Workflow struct {
	store    *store.Store
	backend  Backend
	analysis *tracker.Tracker[models.AnalysisResponse]
	newID    func() string
}

// New wires a workflow over st and backend.
func New(st *store.Store, backend Backend) *Workflow {
	w := &Workflow{
		store:   st,
		backend: backend,
		newID:   func() string { return "chart-" + uuid.New().String() },
	}
	w.analysis = tracker.New("analysis", backend.Analyze, client.ClassifyAnalysisError)
	w.analysis.OnChange(w.mirrorAnalysis)
	return w
}

// Store returns the underlying store.
func (w *Workflow) Store() *store.Store { return w.store }

// Analysis returns the analysis tracker.
func (w *Workflow) Analysis() *tracker.Tracker[models.AnalysisResponse] { return w.analysis }

// Upload selects the file at path, sends it to the backend, and moves to the
// processing page once the server has assigned metadata.
func (w *Workflow) Upload(ctx context.Context, path string) (*models.FileMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		opErr := client.ClassifyUploadError(&client.SetupError{Op: "upload", Err: err})
		w.store.SetUploadError(opErr)
		return nil, opErr
	}

	w.store.SetFile(&models.SelectedFile{Name: filepath.Base(path), Path: path, Size: info.Size()})
	w.store.SetUploadError(nil)
	w.store.SetUploadProgress(0)
	w.store.SetUploading(true)

	lastPct := -1
	meta, err := w.backend.UploadFile(ctx, path, func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := int(math.Floor(float64(sent) * 100 / float64(total)))
		if pct == lastPct {
			return
		}
		lastPct = pct
		w.store.SetUploadProgress(float64(pct))
	})
	if err != nil {
		opErr := client.ClassifyUploadError(err)
		w.store.SetUploadError(opErr)
		w.store.SetUploading(false)
		fmt.Printf("[Workflow] Upload of %s failed: %s\n", filepath.Base(path), opErr.Message)
		return nil, opErr
	}

	// A new file invalidates whatever was derived from the previous one.
	w.analysis.Reset()
	w.store.ResetAnalysis()
	w.store.ResetDashboard()

	w.store.SetFileMetadata(meta)
	w.store.SetUploadProgress(100)
	w.store.SetUploading(false)
	w.store.GoToPage(models.PageProcessing)
	fmt.Printf("[Workflow] Uploaded %s as %s (%d bytes)\n", meta.Filename, meta.FileID, meta.SizeBytes)
	return meta, nil
}

// Analyze starts analysis of the current file. The returned channel closes
// once the request settles.
func (w *Workflow) Analyze(ctx context.Context) <-chan struct{} {
	fileID := ""
	if meta := w.store.Snapshot().FileMetadata; meta != nil {
		fileID = meta.FileID
	}
	w.store.GoToPage(models.PageProcessing)
	return w.analysis.Run(ctx, fileID)
}

// AnalyzeSync runs analysis and waits for it. A failure is returned as an
// *models.OperationError and is also stored in the analysis slice. A run that
// no longer owns the tracker when it settles yields ErrAnalysisSuperseded.
func (w *Workflow) AnalyzeSync(ctx context.Context) (*models.AnalysisResponse, error) {
	<-w.Analyze(ctx)
	s := w.analysis.State()
	switch {
	case s.Error != nil:
		return nil, s.Error
	case s.Data == nil:
		return nil, ErrAnalysisSuperseded
	}
	return s.Data, nil
}

// CancelAnalysis stops showing the in-flight analysis. The request still runs
// to completion but its result is dropped.
func (w *Workflow) CancelAnalysis() {
	w.analysis.Reset()
}

// mirrorAnalysis copies tracker transitions into the analysis slice.
func (w *Workflow) mirrorAnalysis(fileID string, s tracker.State[models.AnalysisResponse]) {
	switch {
	case s.Loading:
		w.store.SetAnalysisError(nil)
		w.store.SetAnalyzing(true)
		w.store.SetAnalysisProgress(10, stepRequesting)
	case s.Error != nil:
		w.store.SetAnalysisError(s.Error)
		w.store.SetAnalyzing(false)
		w.store.SetAnalysisProgress(0, "")
	case s.Data != nil:
		w.store.SetSummary(Summarize(s.Data))
		w.store.SetSuggestions(s.Data.Suggestions)
		w.store.SetAnalysisProgress(100, stepComplete)
		w.store.SetAnalyzing(false)
		w.store.GoToPage(models.PageResults)
		fmt.Printf("[Workflow] Analysis of %s produced %d suggestions\n", fileID, len(s.Data.Suggestions))
	default:
		w.store.SetAnalysisError(nil)
		w.store.SetAnalyzing(false)
		w.store.SetAnalysisProgress(0, "")
	}
}

// Summarize returns the response summary, or one derived from the data
// overview when the backend sent none.
func Summarize(resp *models.AnalysisResponse) string {
	if s := strings.TrimSpace(resp.Summary); s != "" {
		return s
	}
	o := resp.DataOverview
	parts := []string{fmt.Sprintf("%d rows across %d columns", o.TotalRows, o.TotalColumns)}
	if n := len(o.NumericColumns); n > 0 {
		parts = append(parts, fmt.Sprintf("%d numeric", n))
	}
	if n := len(o.CategoricalColumns); n > 0 {
		parts = append(parts, fmt.Sprintf("%d categorical", n))
	}
	if n := len(o.DatetimeColumns); n > 0 {
		parts = append(parts, fmt.Sprintf("%d datetime", n))
	}
	return strings.Join(parts, ", ") + fmt.Sprintf("; %d chart suggestions", len(resp.Suggestions))
}

// CreateVisualization turns the suggestion cardID into a dashboard chart,
// places it on the grid, and moves to the dashboard.
func (w *Workflow) CreateVisualization(cardID string) (models.ChartConfig, error) {
	s := w.store.Snapshot()
	card, ok := models.FindSuggestion(s.Suggestions, cardID)
	if !ok {
		return models.ChartConfig{}, fmt.Errorf("suggestion not found: %s", cardID)
	}

	chart := ChartFromCard(w.newID(), card, s.FileMetadata)
	if err := w.AddChart(chart); err != nil {
		return models.ChartConfig{}, err
	}
	w.store.GoToPage(models.PageDashboard)
	return chart, nil
}

// AddChart validates chart, adds it, and gives it the next grid slot. A chart
// whose id is already on the dashboard is left as it is.
func (w *Workflow) AddChart(chart models.ChartConfig) error {
	if err := chart.Validate(); err != nil {
		return err
	}
	w.store.PlaceChart(chart, func(n int) models.LayoutItem {
		return NextLayoutSlot(chart.ID, n)
	})
	return nil
}

// NextLayoutSlot places the n-th chart on a two-column grid.
func NextLayoutSlot(chartID string, n int) models.LayoutItem {
	return models.LayoutItem{
		ChartID: chartID,
		X:       (n % gridColumns) * gridItemWidth,
		Y:       (n / gridColumns) * gridItemHeight,
		W:       gridItemWidth,
		H:       gridItemHeight,
	}
}

// ChartFromCard builds a chart configuration from a suggestion card.
func ChartFromCard(id string, card models.AnalysisCard, meta *models.FileMetadata) models.ChartConfig {
	var y models.Axis
	for _, part := range strings.Split(card.YAxis, ",") {
		if p := strings.TrimSpace(part); p != "" {
			y = append(y, p)
		}
	}

	chart := models.ChartConfig{
		ID:          id,
		Type:        NormalizeChartType(card.ChartType),
		Title:       card.Title,
		Description: card.Summary,
		XAxis:       card.XAxis,
		YAxis:       y,
		Colors:      append([]string(nil), DefaultPalette...),
		Data:        card.PreviewData,
		Meta: &models.ChartMeta{
			Rows:    len(card.PreviewData),
			Columns: columnCount(card.PreviewData, meta),
		},
	}
	if meta != nil {
		chart.Meta.SourceFileID = meta.FileID
	}
	return chart
}

// NormalizeChartType maps backend chart names onto the supported set.
// Unknown names render as bar charts.
func NormalizeChartType(name string) models.ChartType {
	t := models.ChartType(strings.ToLower(strings.TrimSpace(name)))
	if t.Valid() {
		return t
	}
	switch t {
	case "doughnut":
		return models.ChartDonut
	case "timeseries", "time_series", "trend":
		return models.ChartLine
	case "scatter_plot", "correlation":
		return models.ChartScatter
	case "stacked_area":
		return models.ChartArea
	}
	return models.ChartBar
}

func columnCount(rows []models.Row, meta *models.FileMetadata) int {
	if meta != nil && len(meta.Columns) > 0 {
		return len(meta.Columns)
	}
	keys := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	return len(keys)
}

// RemoveChart drops a chart from the dashboard.
func (w *Workflow) RemoveChart(id string) {
	w.store.RemoveChart(id)
}

// StartOver clears every slice and returns to the landing page.
func (w *Workflow) StartOver() {
	w.analysis.Reset()
	w.store.ResetUpload()
	w.store.ResetAnalysis()
	w.store.ResetDashboard()
	w.store.GoToPage(models.PageLanding)
}

// Sync pushes fileData for the current file to the server-side store.
func (w *Workflow) Sync(ctx context.Context, fileData any) (*client.SyncResponse, error) {
	fileID := ""
	if meta := w.store.Snapshot().FileMetadata; meta != nil {
		fileID = meta.FileID
	}
	resp, err := w.backend.SyncStorage(ctx, fileID, fileData)
	if err != nil {
		return nil, client.ClassifySyncError(err)
	}
	return resp, nil
}

// DebugStorage reports what the server-side store holds.
func (w *Workflow) DebugStorage(ctx context.Context) (*client.StorageInfo, error) {
	return w.backend.DebugStorage(ctx)
}
