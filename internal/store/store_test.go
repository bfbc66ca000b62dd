package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
)

func chart(id, title string) models.ChartConfig {
	return models.ChartConfig{
		ID:     id,
		Type:   models.ChartBar,
		Title:  title,
		XAxis:  "region",
		YAxis:  models.Axis{"sales"},
		Colors: []string{"#3B82F6"},
		Data:   []models.Row{{"region": "north", "sales": 10.0}},
	}
}

func chartIDs(s State) []string {
	ids := make([]string, 0, len(s.SelectedCharts))
	for _, c := range s.SelectedCharts {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestInitialState(t *testing.T) {
	s := NewDefault().Snapshot()
	assert.Equal(t, models.PageLanding, s.CurrentPage)
	assert.Empty(t, s.PageHistory)
	assert.Empty(t, s.SelectedCharts)
	assert.Empty(t, s.Layout)
	assert.Nil(t, s.FileMetadata)
	assert.False(t, s.IsUploading)
	assert.False(t, s.IsAnalyzing)
}

func TestUploadAnalyzeDashboardScenario(t *testing.T) {
	st := NewDefault()

	st.SetCurrentPage(models.PageProcessing)
	assert.Equal(t, []models.PageID{models.PageLanding}, st.Snapshot().PageHistory)

	st.SetCurrentPage(models.PageResults)
	assert.Equal(t, []models.PageID{models.PageLanding, models.PageProcessing}, st.Snapshot().PageHistory)

	st.AddChart(chart("c1", "first"))
	st.AddChart(chart("c1", "first again"))
	assert.Len(t, st.Snapshot().SelectedCharts, 1)

	st.AddChart(chart("c2", "second"))
	assert.Equal(t, []string{"c1", "c2"}, chartIDs(st.Snapshot()))

	st.SetCurrentPage(models.PageDashboard)
	assert.Equal(t, []models.PageID{models.PageLanding, models.PageProcessing, models.PageResults}, st.Snapshot().PageHistory)

	st.GoBack()
	s := st.Snapshot()
	assert.Equal(t, models.PageResults, s.CurrentPage)
	assert.Equal(t, []models.PageID{models.PageLanding, models.PageProcessing}, s.PageHistory)
}

func TestAddChart_KeepsFirstCopy(t *testing.T) {
	st := NewDefault()
	st.AddChart(chart("c1", "original"))
	st.AddChart(chart("c1", "replacement"))

	c, ok := st.Snapshot().Chart("c1")
	require.True(t, ok)
	assert.Equal(t, "original", c.Title)
}

func TestAddChartIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		st := NewDefault()
		ids := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c", "d", "e"}), 0, 40).Draw(t, "ids")
		var order []string
		seen := map[string]bool{}
		for _, id := range ids {
			st.AddChart(chart(id, id))
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
		got := chartIDs(st.Snapshot())
		if len(got) != len(order) {
			t.Fatalf("expected %d distinct charts, got %v", len(order), got)
		}
		for i := range order {
			if got[i] != order[i] {
				t.Fatalf("insertion order broken: want %v got %v", order, got)
			}
		}
	})
}

func TestRemoveThenAddRestoresSingleFreshCopy(t *testing.T) {
	st := NewDefault()
	st.AddChart(chart("c1", "old"))
	st.UpdateChart("c1", models.ChartPatch{Description: ptr("stale description")})
	st.RemoveChart("c1")
	assert.Empty(t, st.Snapshot().SelectedCharts)

	st.AddChart(chart("c1", "new"))
	s := st.Snapshot()
	require.Len(t, s.SelectedCharts, 1)
	assert.Equal(t, "new", s.SelectedCharts[0].Title)
	assert.Empty(t, s.SelectedCharts[0].Description)
}

func TestRemoveChart_LeavesLayout(t *testing.T) {
	st := NewDefault()
	st.AddChart(chart("c1", "one"))
	st.AddChart(chart("c2", "two"))
	st.SetLayout([]models.LayoutItem{
		{ChartID: "c1", X: 0, Y: 0, W: 6, H: 4},
		{ChartID: "c2", X: 6, Y: 0, W: 6, H: 4},
	})

	st.RemoveChart("c1")
	s := st.Snapshot()
	assert.Len(t, s.Layout, 2, "layout entries are not pruned")
	assert.Equal(t, []models.LayoutItem{{ChartID: "c2", X: 6, Y: 0, W: 6, H: 4}}, VisibleLayout(s))
}

func TestPlaceChart(t *testing.T) {
	st := NewDefault()
	slot := func(id string) func(int) models.LayoutItem {
		return func(n int) models.LayoutItem { return models.LayoutItem{ChartID: id, X: n, W: 6, H: 4} }
	}

	assert.True(t, st.PlaceChart(chart("c1", "first"), slot("c1")))
	assert.True(t, st.PlaceChart(chart("c2", "second"), slot("c2")))
	assert.False(t, st.PlaceChart(chart("c1", "again"), slot("c1")))

	s := st.Snapshot()
	require.Len(t, s.SelectedCharts, 2)
	assert.Equal(t, "first", s.SelectedCharts[0].Title)
	assert.Equal(t, []models.LayoutItem{
		{ChartID: "c1", X: 0, W: 6, H: 4},
		{ChartID: "c2", X: 1, W: 6, H: 4},
	}, s.Layout)
}

func TestPlaceChart_ConcurrentSameID(t *testing.T) {
	st := NewDefault()
	inserted := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		go func() {
			inserted <- st.PlaceChart(chart("c1", "x"), func(n int) models.LayoutItem {
				return models.LayoutItem{ChartID: "c1", X: n}
			})
		}()
	}
	wins := 0
	for i := 0; i < 16; i++ {
		if <-inserted {
			wins++
		}
	}
	s := st.Snapshot()
	assert.Equal(t, 1, wins)
	assert.Len(t, s.SelectedCharts, 1)
	assert.Len(t, s.Layout, 1)
}

func TestUpdateChart(t *testing.T) {
	st := NewDefault()
	st.AddChart(chart("c1", "before"))
	st.AddChart(chart("c2", "other"))

	pie := models.ChartPie
	st.UpdateChart("c1", models.ChartPatch{Title: ptr("after"), Type: &pie})
	s := st.Snapshot()

	c1, _ := s.Chart("c1")
	assert.Equal(t, "after", c1.Title)
	assert.Equal(t, models.ChartPie, c1.Type)
	assert.Equal(t, "region", c1.XAxis, "untouched fields survive")

	c2, _ := s.Chart("c2")
	assert.Equal(t, "other", c2.Title)
	assert.Equal(t, []string{"c1", "c2"}, chartIDs(s))
}

func TestUpdateChart_UnknownIDIsNoop(t *testing.T) {
	st := NewDefault()
	st.AddChart(chart("c1", "before"))

	calls := 0
	st.Subscribe(func(State) { calls++ })
	st.UpdateChart("missing", models.ChartPatch{Title: ptr("x")})

	assert.Equal(t, 0, calls)
	c, _ := st.Snapshot().Chart("c1")
	assert.Equal(t, "before", c.Title)
}

func TestResetDashboard_LeavesOtherSlices(t *testing.T) {
	st := NewDefault()
	meta := &models.FileMetadata{FileID: "f1", Filename: "sales.csv"}
	st.SetFileMetadata(meta)
	st.SetCurrentPage(models.PageProcessing)
	st.SetCurrentPage(models.PageDashboard)
	st.AddChart(chart("c1", "one"))
	st.SetLayout([]models.LayoutItem{{ChartID: "c1", W: 6, H: 4}})
	before := st.Snapshot()

	st.ResetDashboard()
	s := st.Snapshot()
	assert.Empty(t, s.SelectedCharts)
	assert.Empty(t, s.Layout)
	assert.Equal(t, before.CurrentPage, s.CurrentPage)
	assert.Equal(t, before.PageHistory, s.PageHistory)
	assert.Equal(t, before.FileMetadata, s.FileMetadata)
}

func TestResetUploadAndAnalysis(t *testing.T) {
	st := NewDefault()
	st.SetFile(&models.SelectedFile{Name: "sales.csv", Path: "/tmp/sales.csv", Size: 10})
	st.SetFileMetadata(&models.FileMetadata{FileID: "f1"})
	st.SetUploading(true)
	st.SetUploadProgress(140)
	st.SetUploadError(&models.OperationError{Message: "x", Kind: models.ErrorKindSync})
	st.SetAnalyzing(true)
	st.SetAnalysisProgress(50, "profiling")
	st.SetSummary("12 rows")
	st.SetSuggestions([]models.AnalysisCard{{ID: "s1"}})
	st.SetAnalysisError(&models.OperationError{Message: "y", Kind: models.ErrorKindAnalysis})
	st.AddChart(chart("c1", "one"))

	assert.Equal(t, 100.0, st.Snapshot().UploadProgress)

	st.ResetUpload()
	s := st.Snapshot()
	assert.Nil(t, s.File)
	assert.Nil(t, s.FileMetadata)
	assert.False(t, s.IsUploading)
	assert.Zero(t, s.UploadProgress)
	assert.Nil(t, s.UploadError)
	assert.True(t, s.IsAnalyzing, "analysis slice untouched by upload reset")
	assert.Equal(t, "12 rows", s.Summary)

	st.ResetAnalysis()
	s = st.Snapshot()
	assert.False(t, s.IsAnalyzing)
	assert.Zero(t, s.AnalysisProgress)
	assert.Empty(t, s.AnalysisStep)
	assert.Empty(t, s.Summary)
	assert.Empty(t, s.Suggestions)
	assert.Nil(t, s.AnalysisError)
	assert.Len(t, s.SelectedCharts, 1, "dashboard untouched by analysis reset")
}

func TestGoBackToResults_BypassesHistory(t *testing.T) {
	st := NewDefault()
	st.SetCurrentPage(models.PageProcessing)
	st.SetCurrentPage(models.PageResults)
	st.SetCurrentPage(models.PageDashboard)
	st.AddChart(chart("c1", "one"))
	st.SetLayout([]models.LayoutItem{{ChartID: "c1"}})
	historyBefore := st.Snapshot().PageHistory

	st.GoBackToResults()
	s := st.Snapshot()
	assert.Equal(t, models.PageResults, s.CurrentPage)
	assert.Equal(t, historyBefore, s.PageHistory, "history is not popped")
	assert.Empty(t, s.SelectedCharts)
	assert.Empty(t, s.Layout)
}

func TestGoToPage_SamePageDoesNotNotify(t *testing.T) {
	st := NewDefault()
	calls := 0
	st.Subscribe(func(State) { calls++ })

	st.GoToPage(models.PageLanding)
	assert.Equal(t, 0, calls)
	assert.Empty(t, st.Snapshot().PageHistory)

	st.GoToPage(models.PageResults)
	assert.Equal(t, 1, calls)
}

func TestGoBack_EmptyHistoryStaysPut(t *testing.T) {
	st := NewDefault()
	assert.False(t, st.CanGoBack())
	st.GoBack()
	assert.Equal(t, models.PageLanding, st.Snapshot().CurrentPage)
}

func TestSubscribe_ReceivesSnapshotsInOrder(t *testing.T) {
	st := NewDefault()
	var pages []models.PageID
	unsubscribe := st.Subscribe(func(s State) {
		pages = append(pages, s.CurrentPage)
	})

	st.SetCurrentPage(models.PageProcessing)
	st.SetCurrentPage(models.PageResults)
	unsubscribe()
	st.SetCurrentPage(models.PageDashboard)

	assert.Equal(t, []models.PageID{models.PageProcessing, models.PageResults}, pages)
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	st := NewDefault()
	st.AddChart(chart("c1", "one"))

	s := st.Snapshot()
	s.SelectedCharts[0].Title = "mutated"
	s.SelectedCharts[0].Data[0]["sales"] = 99.0

	c, _ := st.Snapshot().Chart("c1")
	assert.Equal(t, "one", c.Title)
	assert.Equal(t, 10.0, c.Data[0]["sales"])
}

func TestHydrate_NormalizesBadInput(t *testing.T) {
	s := Hydrate(Persisted{
		CurrentPage: "settings",
		PageHistory: []models.PageID{"landing", "bogus", "processing", "results", "dashboard", "results", "dashboard"},
	})
	assert.Equal(t, models.PageLanding, s.CurrentPage)
	assert.Len(t, s.PageHistory, 5)
	assert.NotNil(t, s.SelectedCharts)
	assert.NotNil(t, s.Layout)
	assert.NotNil(t, s.Suggestions)
}

func TestHydrate_TransientFieldsUseDefaults(t *testing.T) {
	meta := &models.FileMetadata{FileID: "f1", UploadedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	s := Hydrate(Persisted{FileMetadata: meta, CurrentPage: models.PageResults})
	assert.Equal(t, models.PageResults, s.CurrentPage)
	assert.Equal(t, "f1", s.FileMetadata.FileID)
	assert.Equal(t, Transient{}, s.Transient)
}

func TestConcurrentActions(t *testing.T) {
	st := NewDefault()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				st.AddChart(chart(fmt.Sprintf("c%d", j%10), "x"))
				st.SetCurrentPage(models.Pages[(i+j)%len(models.Pages)])
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	s := st.Snapshot()
	assert.Len(t, s.SelectedCharts, 10)
	assert.LessOrEqual(t, len(s.PageHistory), 5)
}

func ptr[T any](v T) *T { return &v }
