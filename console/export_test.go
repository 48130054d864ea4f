package console

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dracory/flatbridge/remote"
	"github.com/dracory/flatbridge/shared/types"
)

func loadedExport(t *testing.T, f *fakeRemote, saver Saver) *ExportWorkflow {
	t.Helper()
	w := NewExportWorkflow(f, saver, time.Second)
	require.NoError(t, w.SelectTable(context.Background(), "orders"))
	return w
}

func TestSelectTableFetchesOnce(t *testing.T) {
	f := newFake()
	w := NewExportWorkflow(f, &MemorySaver{}, time.Second)

	var phases []ExportPhase
	w.Subscribe(func(s ExportState) { phases = append(phases, s.Phase) })

	require.NoError(t, w.SelectTable(context.Background(), "orders"))

	assert.Equal(t, 1, f.count("schema"))
	assert.Equal(t, 1, f.count("query"))
	assert.Equal(t, []string{"SELECT * FROM orders LIMIT 100"}, f.queries)

	// rendering reads snapshots and never refetches
	for i := 0; i < 5; i++ {
		_ = w.State()
	}
	assert.Equal(t, 1, f.count("schema"))
	assert.Equal(t, 1, f.count("query"))

	st := w.State()
	assert.Equal(t, SchemaLoaded, st.Phase)
	assert.Equal(t, []string{"id", "total"}, st.Selection.Projected())
	assert.Equal(t, 2, st.Result.Len())
	assert.Contains(t, phases, TableSelected)
}

func TestSelectTableNotFound(t *testing.T) {
	f := newFake()
	w := NewExportWorkflow(f, &MemorySaver{}, time.Second)

	err := w.SelectTable(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSchemaNotFound)

	st := w.State()
	assert.Equal(t, TableSelected, st.Phase)
	assert.True(t, st.Banner.IsError())
	assert.Zero(t, f.count("query"))
	assert.False(t, st.CanExport())
}

func TestExportOrdersCSV(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/clickhouse/schema/orders":
			_, _ = w.Write([]byte(`{"columns":[{"name":"id","type":"UInt64"},{"name":"total","type":"Float64"}]}`))
		case "/api/clickhouse/query":
			_, _ = w.Write([]byte(`{"data":[[1,9.99],[2,19.5]]}`))
		default:
			gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
			_, _ = w.Write([]byte("id,total\n1,9.99\n2,19.5\n"))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	w := NewExportWorkflow(remote.New(srv.URL, "tok"), DirSaver{Dir: dir}, time.Second)
	require.NoError(t, w.SelectTable(context.Background(), "orders"))

	path, err := w.Export(context.Background(), "csv")
	require.NoError(t, err)

	assert.Equal(t, "/api/flatfile/download/orders", gotPath)
	assert.Equal(t, "format=csv&columns=id,total", gotQuery)
	assert.Equal(t, filepath.Join(dir, "orders.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,total\n1,9.99\n2,19.5\n", string(data))
}

func TestExportSettlesBackToSchemaLoaded(t *testing.T) {
	f := newFake()
	saver := &MemorySaver{}
	w := loadedExport(t, f, saver)

	var phases []ExportPhase
	w.Subscribe(func(s ExportState) { phases = append(phases, s.Phase) })

	for i := 0; i < 2; i++ {
		_, err := w.Export(context.Background(), "XLSX")
		require.NoError(t, err)
	}

	assert.Equal(t, []ExportPhase{Exporting, Exporting, Exported, SchemaLoaded}, phases[:4])
	st := w.State()
	assert.Equal(t, SchemaLoaded, st.Phase)
	assert.Equal(t, JobSucceeded, st.Job.Status)
	assert.Equal(t, "orders.xlsx", st.Job.Destination)
	assert.Equal(t, 1, f.count("schema"))

	_, ok := saver.Get("orders.xlsx")
	assert.True(t, ok)
}

func TestExportProjectedColumns(t *testing.T) {
	f := newFake()
	w := loadedExport(t, f, &MemorySaver{})
	w.Toggle("id")

	_, err := w.Export(context.Background(), "csv")
	require.NoError(t, err)
	require.Len(t, f.downloads, 1)
	assert.Equal(t, download{table: "orders", format: "csv", columns: []string{"total"}}, f.downloads[0])
}

func TestExportPreconditions(t *testing.T) {
	t.Run("no table", func(t *testing.T) {
		f := newFake()
		w := NewExportWorkflow(f, &MemorySaver{}, time.Second)
		_, err := w.Export(context.Background(), "csv")
		assert.Equal(t, MissingField, ReasonOf(err))
		assert.Zero(t, f.count("download"))
	})

	t.Run("no columns", func(t *testing.T) {
		f := newFake()
		w := loadedExport(t, f, &MemorySaver{})
		w.Toggle("id")
		w.Toggle("total")
		assert.False(t, w.State().CanExport())

		_, err := w.Export(context.Background(), "csv")
		assert.ErrorIs(t, err, ErrMissingField)
		assert.Zero(t, f.count("download"))
	})

	t.Run("bad format", func(t *testing.T) {
		f := newFake()
		w := loadedExport(t, f, &MemorySaver{})
		_, err := w.Export(context.Background(), "parquet")
		assert.Equal(t, MissingField, ReasonOf(err))
		assert.Zero(t, f.count("download"))
	})
}

func TestExportFailureReasons(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Reason
	}{
		{"transport", fmt.Errorf("%w: refused", remote.ErrTransport), TransportError},
		{"not found", fmt.Errorf("%w: HTTP 404", remote.ErrNotFound), NotFound},
		{"server", fmt.Errorf("%w: HTTP 500", remote.ErrServer), ServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFake()
			f.downloadErr = tc.err
			saver := &MemorySaver{}
			w := loadedExport(t, f, saver)

			_, err := w.Export(context.Background(), "csv")
			assert.Equal(t, tc.want, ReasonOf(err))

			st := w.State()
			assert.Equal(t, ExportFailed, st.Phase)
			assert.Equal(t, JobFailed, st.Job.Status)
			assert.Equal(t, tc.want, st.Job.Reason)
			assert.True(t, st.Banner.IsError())
			_, saved := saver.Get("orders.csv")
			assert.False(t, saved)
		})
	}
}

func TestExportBusyAndCancel(t *testing.T) {
	f := newFake()
	w := loadedExport(t, f, &MemorySaver{})
	f.started = make(chan struct{})
	f.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := w.Export(context.Background(), "csv")
		done <- err
	}()
	<-f.started

	assert.True(t, w.Busy())
	st := w.State()
	assert.Equal(t, Exporting, st.Phase)
	assert.False(t, st.CanExport())
	_, err := w.Export(context.Background(), "csv")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, Busy, ReasonOf(err))
	assert.ErrorIs(t, w.SelectTable(context.Background(), "orders"), ErrBusy)

	w.Cancel()
	err = <-done
	assert.Equal(t, TransportError, ReasonOf(err))
	assert.False(t, w.Busy())
	assert.Equal(t, 1, f.count("download"))
}

func TestExportDeadline(t *testing.T) {
	f := newFake()
	w := NewExportWorkflow(f, &MemorySaver{}, 20*time.Millisecond)
	require.NoError(t, w.SelectTable(context.Background(), "orders"))
	f.started = make(chan struct{})
	f.release = make(chan struct{})

	_, err := w.Export(context.Background(), "csv")
	assert.Equal(t, TransportError, ReasonOf(err))
	assert.False(t, w.Busy())
}

func TestRunQueryOverride(t *testing.T) {
	f := newFake()
	w := loadedExport(t, f, &MemorySaver{})

	f.data = [][]any{{3, 1.5}}
	res, err := w.RunQuery(context.Background(), "SELECT * FROM orders WHERE id = 3")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": 3, "total": 1.5}}, res.Records())

	st := w.State()
	assert.Equal(t, QueryOverride, st.Phase)
	assert.Equal(t, "SELECT * FROM orders WHERE id = 3", st.Query)
	assert.True(t, st.CanExport())
}

func TestPreviewJoinReplacesResult(t *testing.T) {
	f := newFake()
	w := loadedExport(t, f, &MemorySaver{})

	f.joined = [][]any{{"Ann", "Oslo"}}
	res, err := w.PreviewJoin(context.Background(), types.PreviewRequest{
		Tables:  []string{"orders", "customers"},
		Columns: []string{"customers.name", "customers.city"},
		JoinConditions: []types.JoinCondition{{
			LeftTable: "orders", LeftColumn: "customer",
			RightTable: "customers", RightColumn: "name",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())

	st := w.State()
	assert.Equal(t, QueryOverride, st.Phase)
	assert.Equal(t, res, st.Result)
	assert.Empty(t, st.Query)
	assert.Contains(t, st.Banner.Text, "orders, customers")
}

func TestPreviewJoinFailureSetsBanner(t *testing.T) {
	f := newFake()
	w := loadedExport(t, f, &MemorySaver{})

	f.queryErr = fmt.Errorf("%w: 400 invalid join", remote.ErrServer)
	_, err := w.PreviewJoin(context.Background(), types.PreviewRequest{
		Tables:  []string{"orders"},
		Columns: []string{"id"},
	})
	require.Error(t, err)
	assert.Equal(t, SchemaLoaded, w.State().Phase)
	assert.NotEmpty(t, w.State().Banner.Text)
}

func TestBannerPersistsUntilNextOperation(t *testing.T) {
	f := newFake()
	w := loadedExport(t, f, &MemorySaver{})

	_, err := w.RunQuery(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, w.State().Banner.IsError())

	w.Toggle("id")
	assert.True(t, w.State().Banner.IsError())

	_, err = w.RunQuery(context.Background(), "select * from orders")
	require.NoError(t, err)
	assert.False(t, w.State().Banner.IsError())
}

func TestRefreshTables(t *testing.T) {
	f := newFake()
	f.tables = []string{"orders"}
	w := NewExportWorkflow(f, &MemorySaver{}, time.Second)

	tables, err := w.RefreshTables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, tables)
	assert.Equal(t, []string{"orders"}, w.Catalog().Tables())
}
