package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dracory/flatbridge/remote"
	"github.com/dracory/flatbridge/shared/types"
)

func ingestFake(columns ...string) *fakeRemote {
	f := newFake()
	f.upload = types.UploadResponse{Message: "ok", Columns: columns, RowCount: 3}
	f.ingestResp = types.IngestResponse{Status: "success", RowsProcessed: 2, Columns: columns}
	return f
}

func selectData(t *testing.T, w *IngestWorkflow, name, data string) {
	t.Helper()
	require.NoError(t, w.SelectData(context.Background(), name, strings.NewReader(data)))
}

func TestIngestEnabledUnderAllOrderings(t *testing.T) {
	steps := map[string]func(w *IngestWorkflow){
		"file": func(w *IngestWorkflow) {
			require.NoError(t, w.SelectData(context.Background(), "p.csv", strings.NewReader("a,b\n1,2\n")))
			w.Toggle("a")
		},
		"delimiter": func(w *IngestWorkflow) { w.SetDelimiter(";") },
		"table":     func(w *IngestWorkflow) { w.SetTableName("people") },
	}
	orders := [][]string{
		{"file", "delimiter", "table"},
		{"file", "table", "delimiter"},
		{"delimiter", "file", "table"},
		{"delimiter", "table", "file"},
		{"table", "file", "delimiter"},
		{"table", "delimiter", "file"},
	}

	for _, order := range orders {
		t.Run(strings.Join(order, ","), func(t *testing.T) {
			w := NewIngestWorkflow(ingestFake("a", "b"), 0, time.Second)
			w.SetDelimiter("")

			for i, step := range order {
				assert.False(t, w.State().CanIngest(), "enabled before step %d", i)
				steps[step](w)
			}
			st := w.State()
			assert.True(t, st.CanIngest())
			assert.Equal(t, ColumnsChosen, st.Phase)
		})
	}
}

func TestIngestDisabledWhenAnyPreconditionLost(t *testing.T) {
	ready := func() *IngestWorkflow {
		w := NewIngestWorkflow(ingestFake("a", "b"), 0, time.Second)
		selectData(t, w, "p.csv", "a,b\n")
		w.SelectAllColumns()
		w.SetTableName("people")
		require.True(t, w.State().CanIngest())
		return w
	}

	undo := map[string]func(w *IngestWorkflow){
		"columns":   func(w *IngestWorkflow) { w.Toggle("a"); w.Toggle("b") },
		"delimiter": func(w *IngestWorkflow) { w.SetDelimiter("") },
		"table":     func(w *IngestWorkflow) { w.SetTableName("   ") },
	}
	for name, fn := range undo {
		t.Run(name, func(t *testing.T) {
			w := ready()
			fn(w)
			st := w.State()
			assert.False(t, st.CanIngest())
			assert.Equal(t, SchemaInferred, st.Phase)

			_, err := w.Ingest(context.Background())
			assert.Equal(t, MissingField, ReasonOf(err))
		})
	}

	t.Run("no file", func(t *testing.T) {
		f := ingestFake()
		w := NewIngestWorkflow(f, 0, time.Second)
		w.SetTableName("people")
		assert.Equal(t, NoFile, w.State().Phase)
		_, err := w.Ingest(context.Background())
		assert.ErrorIs(t, err, ErrMissingField)
		assert.Zero(t, f.count("ingest"))
	})
}

func TestIngestRoundTrip(t *testing.T) {
	cols := []string{"id", "name", "city", "amount", "note"}
	f := ingestFake(cols...)
	w := NewIngestWorkflow(f, 0, time.Second)

	selectData(t, w, "data.csv", strings.Join(cols, ",")+"\n1,a,b,2,c\n")
	st := w.State()
	assert.Len(t, st.Inferred.Columns, len(cols))
	assert.True(t, st.Selection.Empty())

	w.SelectAllColumns()
	w.SetTableName("data")
	_, err := w.Ingest(context.Background())
	require.NoError(t, err)

	require.Len(t, f.ingests, 1)
	assert.Len(t, f.ingests[0].Columns, len(cols))
	assert.ElementsMatch(t, cols, f.ingests[0].Columns)
	assert.Equal(t, ",", f.ingests[0].Delimiter)
	assert.Equal(t, "data", f.ingests[0].TableName)
	assert.Equal(t, []string{","}, f.uploadDelims)
}

func TestIngestReportsBoundaryCount(t *testing.T) {
	f := ingestFake("a")
	f.upload.RowCount = 1000
	f.ingestResp.RowsProcessed = 998
	w := NewIngestWorkflow(f, 0, time.Second)

	selectData(t, w, "p.csv", "a\n1\n")
	w.Toggle("a")
	w.SetTableName("t")

	n, err := w.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 998, n)

	st := w.State()
	assert.Equal(t, Ingested, st.Phase)
	assert.Equal(t, 998, st.RowsProcessed)
	assert.Equal(t, JobSucceeded, st.Job.Status)
	assert.Equal(t, DirectionIngest, st.Job.Direction)
	assert.Equal(t, "t", st.Job.Destination)
	assert.Contains(t, st.Banner.Text, "998")

	// the buffer went with the transfer
	assert.False(t, st.CanIngest())
	assert.Nil(t, w.file.Data)
}

func TestIngestDisabledWhileInFlight(t *testing.T) {
	w := NewIngestWorkflow(ingestFake("a"), 0, time.Second)
	selectData(t, w, "p.csv", "a\n1\n")
	w.Toggle("a")
	w.SetTableName("t")
	require.True(t, w.State().CanIngest())

	var inFlight []bool
	w.Subscribe(func(s IngestState) {
		if s.Phase == Ingesting {
			inFlight = append(inFlight, s.CanIngest())
		}
	})
	_, err := w.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, inFlight)
}

func TestIngestFailure(t *testing.T) {
	f := ingestFake("a")
	f.ingestErr = fmt.Errorf("%w: HTTP 400: unknown column", remote.ErrServer)
	w := NewIngestWorkflow(f, 0, time.Second)

	selectData(t, w, "p.xlsx", "binary")
	w.Toggle("a")
	w.SetTableName("t")

	_, err := w.Ingest(context.Background())
	assert.Equal(t, ServerError, ReasonOf(err))

	st := w.State()
	assert.Equal(t, IngestFailed, st.Phase)
	assert.Equal(t, JobFailed, st.Job.Status)
	assert.Equal(t, "xlsx", st.Job.Format)
	assert.True(t, st.Banner.IsError())
	assert.Nil(t, w.file.Data)

	// terminal phase holds until a new file is chosen
	w.SetTableName("u")
	assert.Equal(t, IngestFailed, w.State().Phase)
	selectData(t, w, "q.csv", "a\n")
	assert.Equal(t, SchemaInferred, w.State().Phase)
}

func TestIngestFileTooLarge(t *testing.T) {
	f := ingestFake("a")
	w := NewIngestWorkflow(f, 8, time.Second)

	err := w.SelectData(context.Background(), "big.csv", strings.NewReader("a\n123456789\n"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, FileTooLarge, ReasonOf(err))
	assert.Zero(t, f.count("upload"))
	assert.Equal(t, NoFile, w.State().Phase)
}

func TestIngestSelectFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	f := ingestFake("a", "b")
	w := NewIngestWorkflow(f, 0, time.Second)
	require.NoError(t, w.SelectFile(context.Background(), path))

	st := w.State()
	assert.Equal(t, "people.csv", st.File)
	assert.Equal(t, 8, st.Size)
	assert.Equal(t, SchemaInferred, st.Phase)

	err := w.SelectFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Equal(t, LocalError, ReasonOf(err))
}

func TestIngestUploadFailure(t *testing.T) {
	f := ingestFake()
	f.uploadErr = fmt.Errorf("%w: HTTP 400: unsupported file format", remote.ErrServer)
	w := NewIngestWorkflow(f, 0, time.Second)

	err := w.SelectData(context.Background(), "x.pdf", strings.NewReader("%PDF"))
	assert.Equal(t, ServerError, ReasonOf(err))
	st := w.State()
	assert.Equal(t, FileSelected, st.Phase)
	assert.False(t, st.CanIngest())
}

func TestSuggestedTable(t *testing.T) {
	assert.Equal(t, "sales_2024_q1", FileBuffer{Name: "/tmp/sales 2024-q1.csv"}.SuggestedTable())
}
