// Package store is the single owned state object of the client workflow.
// Every mutation goes through a named action; subscribers see a snapshot
// after each one.
package store

import (
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/navigation"
)

// Persisted is the projection written to durable storage. Adding a field here
// is all it takes to persist it.
type Persisted struct {
	FileMetadata   *models.FileMetadata  `json:"fileMetadata" msgpack:"fileMetadata"`
	Suggestions    []models.AnalysisCard `json:"suggestions" msgpack:"suggestions"`
	Summary        string                `json:"summary" msgpack:"summary"`
	SelectedCharts []models.ChartConfig  `json:"selectedCharts" msgpack:"selectedCharts"`
	Layout         []models.LayoutItem   `json:"layout" msgpack:"layout"`
	CurrentPage    models.PageID         `json:"currentPage" msgpack:"currentPage"`
	PageHistory    []models.PageID       `json:"pageHistory" msgpack:"pageHistory"`
}

// Transient holds fields that always start from their defaults.
type Transient struct {
	File           *models.SelectedFile
	IsUploading    bool
	UploadProgress float64
	UploadError    *models.OperationError

	IsAnalyzing      bool
	AnalysisProgress float64
	AnalysisStep     string
	AnalysisError    *models.OperationError
}

// State is the whole client state.
type State struct {
	Persisted
	Transient
}

// InitialState returns the hard-coded defaults.
func InitialState() State {
	nav := navigation.Initial()
	return State{
		Persisted: Persisted{
			Suggestions:    []models.AnalysisCard{},
			SelectedCharts: []models.ChartConfig{},
			Layout:         []models.LayoutItem{},
			CurrentPage:    nav.CurrentPage,
			PageHistory:    nav.History,
		},
	}
}

// Project returns the persisted subset of s.
func Project(s State) Persisted {
	return s.Clone().Persisted
}

// Hydrate builds a full state from a persisted projection. Transient fields
// take their defaults, and an unknown page falls back to the initial page.
func Hydrate(p Persisted) State {
	s := InitialState()
	s.Persisted = State{Persisted: p}.Clone().Persisted
	if s.Suggestions == nil {
		s.Suggestions = []models.AnalysisCard{}
	}
	if s.SelectedCharts == nil {
		s.SelectedCharts = []models.ChartConfig{}
	}
	if s.Layout == nil {
		s.Layout = []models.LayoutItem{}
	}
	if s.PageHistory == nil {
		s.PageHistory = []models.PageID{}
	}
	if !s.CurrentPage.Valid() {
		s.CurrentPage = models.PageLanding
	}
	valid := s.PageHistory[:0]
	for _, p := range s.PageHistory {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	s.PageHistory = valid
	if len(s.PageHistory) > navigation.MaxHistory {
		s.PageHistory = s.PageHistory[len(s.PageHistory)-navigation.MaxHistory:]
	}
	return s
}

// Navigation returns the navigator view of s.
func (s State) Navigation() navigation.State {
	return navigation.State{CurrentPage: s.CurrentPage, History: s.PageHistory}
}

func (s *State) setNavigation(n navigation.State) {
	s.CurrentPage = n.CurrentPage
	s.PageHistory = n.History
}

// Chart returns the chart with the given id.
func (s State) Chart(id string) (models.ChartConfig, bool) {
	for _, c := range s.SelectedCharts {
		if c.ID == id {
			return c, true
		}
	}
	return models.ChartConfig{}, false
}

// VisibleLayout returns the layout entries that still have a matching chart.
// Dangling entries stay in the store; consumers skip them here.
func VisibleLayout(s State) []models.LayoutItem {
	ids := make(map[string]struct{}, len(s.SelectedCharts))
	for _, c := range s.SelectedCharts {
		ids[c.ID] = struct{}{}
	}
	out := make([]models.LayoutItem, 0, len(s.Layout))
	for _, l := range s.Layout {
		if _, ok := ids[l.ChartID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Clone deep-copies s so snapshots never alias store memory.
func (s State) Clone() State {
	out := s
	if s.FileMetadata != nil {
		m := *s.FileMetadata
		m.Columns = cloneSlice(s.FileMetadata.Columns)
		if s.FileMetadata.InferSchema != nil {
			m.InferSchema = make(map[string]string, len(s.FileMetadata.InferSchema))
			for k, v := range s.FileMetadata.InferSchema {
				m.InferSchema[k] = v
			}
		}
		out.FileMetadata = &m
	}
	if s.Suggestions != nil {
		out.Suggestions = make([]models.AnalysisCard, len(s.Suggestions))
		for i, c := range s.Suggestions {
			c.PreviewData = cloneRows(c.PreviewData)
			out.Suggestions[i] = c
		}
	}
	if s.SelectedCharts != nil {
		out.SelectedCharts = make([]models.ChartConfig, len(s.SelectedCharts))
		for i, c := range s.SelectedCharts {
			out.SelectedCharts[i] = cloneChart(c)
		}
	}
	out.Layout = cloneSlice(s.Layout)
	out.PageHistory = cloneSlice(s.PageHistory)
	if s.File != nil {
		f := *s.File
		out.File = &f
	}
	out.UploadError = s.UploadError.Clone()
	out.AnalysisError = s.AnalysisError.Clone()
	return out
}

func cloneChart(c models.ChartConfig) models.ChartConfig {
	c.YAxis = cloneSlice(c.YAxis)
	c.Colors = cloneSlice(c.Colors)
	c.Data = cloneRows(c.Data)
	if c.Meta != nil {
		m := *c.Meta
		c.Meta = &m
	}
	return c
}

func cloneRows(rows []models.Row) []models.Row {
	if rows == nil {
		return nil
	}
	out := make([]models.Row, len(rows))
	for i, r := range rows {
		if r == nil {
			continue
		}
		cp := make(models.Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

func cloneSlice[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	out := make(S, len(s))
	copy(out, s)
	return out
}
