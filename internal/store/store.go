package store

import (
	"sync"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
)

// Listener receives a snapshot after every action. Listeners run in action
// order and must not dispatch actions themselves.
type Listener func(State)

// Store owns the state. Actions are atomic with respect to each other.
type Store struct {
	mu    sync.RWMutex
	state State

	// notifyMu serializes action+notification so listeners observe states in
	// the order they were produced.
	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates a store seeded with initial.
func New(initial State) *Store {
	return &Store{
		state:     initial.Clone(),
		listeners: make(map[int]Listener),
	}
}

// NewDefault creates a store with the hard-coded initial state.
func NewDefault() *Store {
	return New(InitialState())
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn under the write lock. When fn reports a change, listeners
// are called with the new snapshot.
func (s *Store) update(fn func(st *State) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	snap := s.state.Clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if l, ok := s.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// Navigation

// SetCurrentPage records the current page in history and moves to page.
func (s *Store) SetCurrentPage(page models.PageID) {
	s.update(func(st *State) bool {
		st.setNavigation(st.Navigation().SetCurrentPage(page))
		return true
	})
}

// GoToPage moves to page unless it is already current.
func (s *Store) GoToPage(page models.PageID) {
	s.update(func(st *State) bool {
		next, changed := st.Navigation().GoToPage(page)
		if changed {
			st.setNavigation(next)
		}
		return changed
	})
}

// GoBack returns to the most recent page in history, if any.
func (s *Store) GoBack() {
	s.update(func(st *State) bool {
		next, moved := st.Navigation().GoBack()
		if moved {
			st.setNavigation(next)
		}
		return moved
	})
}

// CanGoBack reports whether history has an entry to return to.
func (s *Store) CanGoBack() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Navigation().CanGoBack()
}

// Upload slice

// SetFile selects the local file to upload.
func (s *Store) SetFile(f *models.SelectedFile) {
	s.update(func(st *State) bool {
		if f == nil {
			st.File = nil
			return true
		}
		cp := *f
		st.File = &cp
		return true
	})
}

// SetFileMetadata stores the server-assigned metadata.
func (s *Store) SetFileMetadata(m *models.FileMetadata) {
	s.update(func(st *State) bool {
		st.FileMetadata = State{Persisted: Persisted{FileMetadata: m}}.Clone().FileMetadata
		return true
	})
}

// SetUploading toggles the upload-in-progress flag.
func (s *Store) SetUploading(uploading bool) {
	s.update(func(st *State) bool {
		st.IsUploading = uploading
		return true
	})
}

// SetUploadProgress stores upload progress, clamped to 0..100.
func (s *Store) SetUploadProgress(progress float64) {
	s.update(func(st *State) bool {
		st.UploadProgress = clampPercent(progress)
		return true
	})
}

// SetUploadError stores or clears the upload error.
func (s *Store) SetUploadError(err *models.OperationError) {
	s.update(func(st *State) bool {
		st.UploadError = err.Clone()
		return true
	})
}

// ResetUpload restores the upload slice to its defaults.
func (s *Store) ResetUpload() {
	s.update(func(st *State) bool {
		st.File = nil
		st.FileMetadata = nil
		st.IsUploading = false
		st.UploadProgress = 0
		st.UploadError = nil
		return true
	})
}

// Analysis slice

// SetAnalyzing toggles the analysis-in-progress flag.
func (s *Store) SetAnalyzing(analyzing bool) {
	s.update(func(st *State) bool {
		st.IsAnalyzing = analyzing
		return true
	})
}

// SetAnalysisProgress stores progress (clamped to 0..100) and the step text.
func (s *Store) SetAnalysisProgress(progress float64, step string) {
	s.update(func(st *State) bool {
		st.AnalysisProgress = clampPercent(progress)
		st.AnalysisStep = step
		return true
	})
}

// SetSummary stores the analysis summary.
func (s *Store) SetSummary(summary string) {
	s.update(func(st *State) bool {
		st.Summary = summary
		return true
	})
}

// SetSuggestions replaces the suggested chart list.
func (s *Store) SetSuggestions(cards []models.AnalysisCard) {
	s.update(func(st *State) bool {
		st.Suggestions = State{Persisted: Persisted{Suggestions: cards}}.Clone().Suggestions
		if st.Suggestions == nil {
			st.Suggestions = []models.AnalysisCard{}
		}
		return true
	})
}

// SetAnalysisError stores or clears the analysis error.
func (s *Store) SetAnalysisError(err *models.OperationError) {
	s.update(func(st *State) bool {
		st.AnalysisError = err.Clone()
		return true
	})
}

// ResetAnalysis restores the analysis slice to its defaults.
func (s *Store) ResetAnalysis() {
	s.update(func(st *State) bool {
		st.IsAnalyzing = false
		st.AnalysisProgress = 0
		st.AnalysisStep = ""
		st.Summary = ""
		st.Suggestions = []models.AnalysisCard{}
		st.AnalysisError = nil
		return true
	})
}

// Dashboard slice

// AddChart appends chart unless a chart with the same id is already present.
func (s *Store) AddChart(chart models.ChartConfig) {
	s.update(func(st *State) bool {
		for _, c := range st.SelectedCharts {
			if c.ID == chart.ID {
				return false
			}
		}
		st.SelectedCharts = append(st.SelectedCharts, cloneChart(chart))
		return true
	})
}

// RemoveChart drops the chart with id. Layout entries are left alone.
func (s *Store) RemoveChart(id string) {
	s.update(func(st *State) bool {
		kept := make([]models.ChartConfig, 0, len(st.SelectedCharts))
		for _, c := range st.SelectedCharts {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(st.SelectedCharts) {
			return false
		}
		st.SelectedCharts = kept
		return true
	})
}

// UpdateChart shallow-merges patch into the chart with id. Unknown ids are ignored.
func (s *Store) UpdateChart(id string, patch models.ChartPatch) {
	s.update(func(st *State) bool {
		for i, c := range st.SelectedCharts {
			if c.ID == id {
				st.SelectedCharts[i] = cloneChart(patch.Apply(c))
				st.SelectedCharts[i].ID = id
				return true
			}
		}
		return false
	})
}

// SetLayout replaces the grid layout.
func (s *Store) SetLayout(layout []models.LayoutItem) {
	s.update(func(st *State) bool {
		st.Layout = cloneSlice(layout)
		if st.Layout == nil {
			st.Layout = []models.LayoutItem{}
		}
		return true
	})
}

// AppendLayout adds one grid entry at the end of the layout.
func (s *Store) AppendLayout(item models.LayoutItem) {
	s.update(func(st *State) bool {
		st.Layout = append(st.Layout, item)
		return true
	})
}

// PlaceChart adds chart and appends the layout entry slot returns for the
// current layout length, as one action. It reports whether the chart was
// inserted; a chart whose id is already present leaves both untouched.
func (s *Store) PlaceChart(chart models.ChartConfig, slot func(n int) models.LayoutItem) bool {
	inserted := false
	s.update(func(st *State) bool {
		for _, c := range st.SelectedCharts {
			if c.ID == chart.ID {
				return false
			}
		}
		st.SelectedCharts = append(st.SelectedCharts, cloneChart(chart))
		st.Layout = append(st.Layout, slot(len(st.Layout)))
		inserted = true
		return true
	})
	return inserted
}

// ResetDashboard clears the charts and the layout.
func (s *Store) ResetDashboard() {
	s.update(func(st *State) bool {
		st.SelectedCharts = []models.ChartConfig{}
		st.Layout = []models.LayoutItem{}
		return true
	})
}

// GoBackToResults clears the dashboard and jumps straight to the results page.
// It sets the page directly without touching history, so history can disagree
// with the actual trail afterwards. Callers rely on that behaviour.
func (s *Store) GoBackToResults() {
	s.update(func(st *State) bool {
		st.SelectedCharts = []models.ChartConfig{}
		st.Layout = []models.LayoutItem{}
		st.CurrentPage = models.PageResults
		return true
	})
}

// Reset restores every slice and the navigator to the initial state.
func (s *Store) Reset() {
	s.update(func(st *State) bool {
		*st = InitialState()
		return true
	})
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
