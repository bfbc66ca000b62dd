package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/store"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderStatus(w io.Writer, s store.State) {
	t := newTable(w)
	t.SetTitle("Session")
	t.AppendRow(table.Row{"Page", s.CurrentPage})
	t.AppendRow(table.Row{"History", joinPages(s.PageHistory)})

	file := "-"
	if s.FileMetadata != nil {
		file = fmt.Sprintf("%s (%s, %d bytes)", s.FileMetadata.Filename, s.FileMetadata.FileID, s.FileMetadata.SizeBytes)
	}
	t.AppendRow(table.Row{"File", file})
	t.AppendSeparator()

	if s.IsUploading {
		t.AppendRow(table.Row{"Upload", fmt.Sprintf("%.0f%%", s.UploadProgress)})
	}
	if s.UploadError != nil {
		t.AppendRow(table.Row{"Upload error", s.UploadError.UserMessage()})
	}
	if s.IsAnalyzing {
		t.AppendRow(table.Row{"Analysis", fmt.Sprintf("%.0f%% %s", s.AnalysisProgress, s.AnalysisStep)})
	}
	if s.AnalysisError != nil {
		t.AppendRow(table.Row{"Analysis error", s.AnalysisError.UserMessage()})
	}
	if s.Summary != "" {
		t.AppendRow(table.Row{"Summary", s.Summary})
	}
	t.AppendRow(table.Row{"Suggestions", len(s.Suggestions)})
	t.AppendRow(table.Row{"Charts", len(s.SelectedCharts)})
	t.Render()

	if len(s.SelectedCharts) > 0 {
		renderCharts(w, s)
	}
}

func renderSuggestions(w io.Writer, cards []models.AnalysisCard) {
	if len(cards) == 0 {
		fmt.Fprintln(w, "(no suggestions)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Chart", "X", "Y", "Preview rows"})
	for _, c := range cards {
		t.AppendRow(table.Row{c.ID, c.Title, c.ChartType, c.XAxis, c.YAxis, len(c.PreviewData)})
	}
	t.Render()
}

func renderCharts(w io.Writer, s store.State) {
	positions := make(map[string]models.LayoutItem)
	for _, item := range store.VisibleLayout(s) {
		positions[item.ChartID] = item
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Type", "Title", "X", "Y", "Grid"})
	for _, c := range s.SelectedCharts {
		grid := "-"
		if p, ok := positions[c.ID]; ok {
			grid = fmt.Sprintf("%d,%d %dx%d", p.X, p.Y, p.W, p.H)
		}
		t.AppendRow(table.Row{c.ID, c.Type, c.Title, c.XAxis, strings.Join(c.YAxis, ", "), grid})
	}
	t.Render()
}

func joinPages(pages []models.PageID) string {
	if len(pages) == 0 {
		return "-"
	}
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = string(p)
	}
	return strings.Join(parts, " → ")
}
