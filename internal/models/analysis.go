package models

import "time"

// Row is one record of chart or preview data.
type Row map[string]any

// AnalysisCard is a chart suggestion produced by the analysis backend.
type AnalysisCard struct {
	ID          string `json:"id" msgpack:"id"`
	Title       string `json:"title" msgpack:"title"`
	Summary     string `json:"summary" msgpack:"summary"`
	ChartType   string `json:"chartType" msgpack:"chartType"`
	XAxis       string `json:"xAxis" msgpack:"xAxis"`
	YAxis       string `json:"yAxis" msgpack:"yAxis"`
	GroupBy     string `json:"groupBy,omitempty" msgpack:"groupBy,omitempty"`
	PreviewData []Row  `json:"previewData" msgpack:"previewData"`
}

// DataOverview summarises the analysed table.
type DataOverview struct {
	TotalRows          int      `json:"total_rows"`
	TotalColumns       int      `json:"total_columns"`
	NumericColumns     []string `json:"numeric_columns,omitempty"`
	CategoricalColumns []string `json:"categorical_columns,omitempty"`
	DatetimeColumns    []string `json:"datetime_columns,omitempty"`
}

// AnalysisResponse is the body returned by POST /api/analyze/{fileId}.
type AnalysisResponse struct {
	FileID            string         `json:"file_id"`
	Summary           string         `json:"summary,omitempty"`
	Suggestions       []AnalysisCard `json:"suggestions"`
	DataOverview      DataOverview   `json:"data_overview"`
	AnalysisTimestamp time.Time      `json:"analysis_timestamp"`
}

// FindSuggestion returns the card with the given id.
func FindSuggestion(cards []AnalysisCard, id string) (AnalysisCard, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return AnalysisCard{}, false
}

// AnalysisResult is the part of an analysis response the client keeps.
type AnalysisResult struct {
	Summary     string         `json:"summary,omitempty"`
	Suggestions []AnalysisCard `json:"suggestions"`
}
