package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmmelissat/analisis-al-instante-sub001/internal/models"
	"github.com/kmmelissat/analisis-al-instante-sub001/internal/store"
)

// failingKV fails every operation.
type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error   { return f.err }
func (f failingKV) Delete(context.Context, string) error        { return f.err }
func (f failingKV) Close() error                                { return nil }

// populate drives st into a state where every slice has data.
func populate(st *store.Store) {
	st.SetFile(&models.SelectedFile{Name: "sales.csv", Path: "/tmp/sales.csv", Size: 2048})
	st.SetFileMetadata(&models.FileMetadata{
		FileID:      "f1",
		Filename:    "sales.csv",
		ContentType: "text/csv",
		SizeBytes:   2048,
		Columns:     []string{"region", "sales"},
		InferSchema: map[string]string{"region": "string", "sales": "float"},
		UploadedAt:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	})
	st.SetUploading(true)
	st.SetUploadProgress(55)
	st.SetCurrentPage(models.PageProcessing)
	st.SetAnalyzing(true)
	st.SetAnalysisProgress(80, "generating suggestions")
	st.SetAnalysisError(&models.OperationError{Message: "transient", Kind: models.ErrorKindAnalysis})
	st.SetSummary("2 columns, 3 rows")
	st.SetSuggestions([]models.AnalysisCard{{
		ID: "s1", Title: "Sales by region", Summary: "North leads", ChartType: "bar",
		XAxis: "region", YAxis: "sales",
		PreviewData: []models.Row{{"region": "north", "sales": 12.5}},
	}})
	st.SetCurrentPage(models.PageResults)
	st.AddChart(models.ChartConfig{
		ID: "c1", Type: models.ChartBar, Title: "Sales by region", Description: "North leads",
		XAxis: "region", YAxis: models.Axis{"sales", "target"}, Colors: []string{"#3B82F6"},
		Data: []models.Row{{"region": "north", "sales": 12.5}},
		Meta: &models.ChartMeta{Rows: 1, Columns: 2, SourceFileID: "f1"},
	})
	st.SetLayout([]models.LayoutItem{{ChartID: "c1", X: 0, Y: 0, W: 6, H: 4}})
	st.SetCurrentPage(models.PageDashboard)
}

func TestAdapter_RoundTrip(t *testing.T) {
	for _, codec := range []Codec{JSONCodec{}, MsgpackCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			ctx := context.Background()
			kv := NewMemoryKV()
			a := NewAdapter(kv, WithCodec(codec))

			st, restored := a.Open(ctx)
			assert.False(t, restored)
			populate(st)
			want := st.Snapshot()

			// Simulate a reload with a fresh adapter over the same storage.
			a.Detach()
			st.Reset()
			got, restored := NewAdapter(kv, WithCodec(codec)).Load(ctx)
			require.True(t, restored)

			require.NotNil(t, got.FileMetadata)
			assert.True(t, want.FileMetadata.UploadedAt.Equal(got.FileMetadata.UploadedAt))
			got.FileMetadata.UploadedAt = want.FileMetadata.UploadedAt

			assert.Equal(t, want.Persisted, got.Persisted)
			assert.Equal(t, store.Transient{}, got.Transient, "transient fields are not restored")
		})
	}
}

func TestAdapter_SavesOnEveryChange(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := NewAdapter(kv)
	st, _ := a.Open(ctx)

	st.SetCurrentPage(models.PageProcessing)
	st.SetUploadProgress(10) // transient, still triggers a save
	assert.Equal(t, 2, a.Saves())
	assert.NoError(t, a.LastError())

	got, ok := a.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, models.PageProcessing, got.CurrentPage)
	assert.Zero(t, got.UploadProgress)
}

func TestAdapter_MissingDataFallsBack(t *testing.T) {
	s, ok := NewAdapter(NewMemoryKV()).Load(context.Background())
	assert.False(t, ok)
	assert.Equal(t, store.InitialState(), s)
}

func TestAdapter_CorruptDataFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
		data  []byte
	}{
		{"garbage json", JSONCodec{}, []byte("{not json")},
		{"wrong shape", JSONCodec{}, []byte(`{"version":1,"state":{"selectedCharts":"nope"}}`)},
		{"future version", JSONCodec{}, []byte(`{"version":99,"state":{}}`)},
		{"garbage msgpack", MsgpackCodec{}, []byte{0xc1, 0xff, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(ctx, DefaultNamespaceKey, tt.data))

			s, ok := NewAdapter(kv, WithCodec(tt.codec)).Load(ctx)
			assert.False(t, ok)
			assert.Equal(t, store.InitialState(), s)
		})
	}
}

func TestAdapter_BackendErrors(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(failingKV{err: errors.New("disk full")})

	s, ok := a.Load(ctx)
	assert.False(t, ok)
	assert.Equal(t, models.PageLanding, s.CurrentPage)

	st := store.NewDefault()
	a.Attach(st)
	st.SetCurrentPage(models.PageResults)
	assert.ErrorContains(t, a.LastError(), "disk full")
	assert.Equal(t, models.PageResults, st.Snapshot().CurrentPage, "store keeps working when saves fail")
}

func TestAdapter_Clear(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := NewAdapter(kv, WithKey("custom"))
	st, _ := a.Open(ctx)
	st.SetCurrentPage(models.PageResults)

	_, err := kv.Get(ctx, "custom")
	require.NoError(t, err)

	require.NoError(t, a.Clear(ctx))
	_, ok := a.Load(ctx)
	assert.False(t, ok)
}

func TestKVBackends(t *testing.T) {
	dir := t.TempDir()
	fileKV, err := NewFileKV(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sqliteKV, err := OpenSQLite(filepath.Join(dir, "state.sqlite"))
	require.NoError(t, err)

	backends := map[string]KV{
		"file":   fileKV,
		"sqlite": sqliteKV,
		"memory": NewMemoryKV(),
	}
	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			defer kv.Close()
			ctx := context.Background()

			_, err := kv.Get(ctx, "analysis-app-storage")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set(ctx, "analysis-app-storage", []byte("one")))
			require.NoError(t, kv.Set(ctx, "analysis-app-storage", []byte("two")))
			got, err := kv.Get(ctx, "analysis-app-storage")
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), got)

			require.NoError(t, kv.Delete(ctx, "analysis-app-storage"))
			_, err = kv.Get(ctx, "analysis-app-storage")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing key is not an error.
			assert.NoError(t, kv.Delete(ctx, "analysis-app-storage"))
		})
	}
}

func TestFileKV_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := NewFileKV(dir)
	require.NoError(t, err)
	st, _ := NewAdapter(kv).Open(ctx)
	st.SetCurrentPage(models.PageProcessing)

	reopened, err := NewFileKV(dir)
	require.NoError(t, err)
	s, ok := NewAdapter(reopened).Load(ctx)
	require.True(t, ok)
	assert.Equal(t, models.PageProcessing, s.CurrentPage)
	assert.Equal(t, []models.PageID{models.PageLanding}, s.PageHistory)
}

func TestOpenKV(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"", "file", "sqlite", "memory"} {
		kv, err := OpenKV(kind, dir)
		require.NoError(t, err, kind)
		require.NoError(t, kv.Close())
	}
	_, err := OpenKV("redis", dir)
	assert.Error(t, err)
}

func TestCodec_RowNumbersDecodeAsFloat64(t *testing.T) {
	in := store.Persisted{
		Suggestions: []models.AnalysisCard{{
			ID: "s1",
			PreviewData: []models.Row{{
				"region": "north",
				"count":  3,
				"big":    int64(1) << 40,
				"ratio":  0.25,
				"tags":   []any{1, "a"},
				"nested": map[string]any{"k": uint8(7)},
			}},
		}},
		SelectedCharts: []models.ChartConfig{{
			ID: "c1", Type: models.ChartBar,
			Data: []models.Row{{"region": "south", "sales": 5}},
		}},
	}
	wantPreview := models.Row{
		"region": "north",
		"count":  float64(3),
		"big":    float64(int64(1) << 40),
		"ratio":  0.25,
		"tags":   []any{float64(1), "a"},
		"nested": map[string]any{"k": float64(7)},
	}

	for _, codec := range []Codec{JSONCodec{}, MsgpackCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			data, err := codec.Encode(in)
			require.NoError(t, err)
			out, err := codec.Decode(data)
			require.NoError(t, err)

			require.Len(t, out.Suggestions, 1)
			assert.Equal(t, wantPreview, out.Suggestions[0].PreviewData[0])
			require.Len(t, out.SelectedCharts, 1)
			assert.Equal(t, models.Row{"region": "south", "sales": float64(5)}, out.SelectedCharts[0].Data[0])
		})
	}
}

func TestCodecByName(t *testing.T) {
	c, err := CodecByName("msgpack")
	require.NoError(t, err)
	assert.Equal(t, "msgpack", c.Name())

	c, err = CodecByName("")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	_, err = CodecByName("xml")
	assert.Error(t, err)
}
