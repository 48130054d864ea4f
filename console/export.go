package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
)

// ExportPhase is the state of the export workflow.
type ExportPhase int

const (
	NoTableSelected ExportPhase = iota
	TableSelected
	SchemaLoaded
	QueryOverride
	Exporting
	Exported
	ExportFailed
)

func (p ExportPhase) String() string {
	switch p {
	case NoTableSelected:
		return "NoTableSelected"
	case TableSelected:
		return "TableSelected"
	case SchemaLoaded:
		return "SchemaLoaded"
	case QueryOverride:
		return "QueryOverride"
	case Exporting:
		return "Exporting"
	case Exported:
		return "Exported"
	case ExportFailed:
		return "ExportFailed"
	default:
		return fmt.Sprintf("ExportPhase(%d)", int(p))
	}
}

// ExportState is one immutable snapshot of the export workflow.
type ExportState struct {
	Phase     ExportPhase
	Table     TableDescriptor
	Selection Selection
	Result    QueryResult
	// Query is the user query whose result replaced the preview, if any.
	Query   string
	Job     TransferJob
	SavedTo string
	Banner  Banner
}

// CanExport reports whether an export may start from this state. It is
// false for as long as an export is in flight.
func (s ExportState) CanExport() bool {
	return s.Phase >= SchemaLoaded && s.Phase != Exporting && s.Table.Name != "" && !s.Selection.Empty()
}

// ExportWorkflow drives table selection, querying and table to file export.
type ExportWorkflow struct {
	catalog *Catalog
	exec    *QueryExecutor
	remote  Remote
	saver   Saver
	task    *task
	state   snapshots[ExportState]
}

func NewExportWorkflow(r Remote, saver Saver, timeout time.Duration) *ExportWorkflow {
	return &ExportWorkflow{
		catalog: NewCatalog(r),
		exec:    NewQueryExecutor(r),
		remote:  r,
		saver:   saver,
		task:    newTask(timeout),
	}
}

// State returns the current snapshot.
func (w *ExportWorkflow) State() ExportState { return w.state.get() }

// Subscribe registers fn to receive every new snapshot.
func (w *ExportWorkflow) Subscribe(fn func(ExportState)) { w.state.subscribe(fn) }

// Busy reports whether an operation is in flight.
func (w *ExportWorkflow) Busy() bool { return w.task.busy() }

// Cancel aborts the operation in flight.
func (w *ExportWorkflow) Cancel() { w.task.abort() }

// Catalog returns the catalog the workflow fetches through.
func (w *ExportWorkflow) Catalog() *Catalog { return w.catalog }

// RefreshTables lists the tables. A failure only changes the banner.
func (w *ExportWorkflow) RefreshTables(ctx context.Context) ([]string, error) {
	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return nil, fail("list tables", err)
	}
	defer end()

	tables, err := w.catalog.ListTables(ctx)
	w.state.update(func(s ExportState) ExportState {
		if err != nil {
			s.Banner = errorBanner(err)
		} else {
			s.Banner = info(fmt.Sprintf("%d tables", len(tables)))
		}
		return s
	})
	return tables, err
}

// SelectTable fetches the schema of table, selects all its columns and
// runs the preview query. Each request is issued once per call.
func (w *ExportWorkflow) SelectTable(ctx context.Context, table string) error {
	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return fail("select table", err)
	}
	defer end()

	w.state.update(func(s ExportState) ExportState {
		return ExportState{Phase: TableSelected, Table: TableDescriptor{Name: table}, Banner: s.Banner}
	})

	desc, err := w.catalog.FetchSchema(ctx, table)
	if err != nil {
		w.setBanner(errorBanner(err))
		return err
	}
	w.state.update(func(s ExportState) ExportState {
		s.Phase = SchemaLoaded
		s.Table = desc
		s.Selection = SelectAll(desc.ColumnNames())
		return s
	})

	res, err := w.exec.Preview(ctx, table, desc.ColumnNames())
	if err != nil {
		w.setBanner(errorBanner(err))
		return err
	}
	w.state.update(func(s ExportState) ExportState {
		s.Result = res
		s.Banner = info(fmt.Sprintf("%d rows from %s", res.Len(), table))
		return s
	})
	zerolog.Ctx(ctx).Debug().Str("table", table).Int("columns", len(desc.Columns)).Msg("table selected")
	return nil
}

// Toggle flips one column of the selection. Unknown names change nothing.
func (w *ExportWorkflow) Toggle(name string) ExportState {
	return w.state.update(func(s ExportState) ExportState {
		s.Selection = s.Selection.Toggle(name)
		return s
	})
}

// RunQuery runs a user query. Rows are paired with the columns of the
// selected table as they stand when the query is submitted.
func (w *ExportWorkflow) RunQuery(ctx context.Context, text string) (QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return QueryResult{}, w.reject(fail("query", ErrEmptyQuery))
	}
	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return QueryResult{}, fail("query", err)
	}
	defer end()

	res, err := w.exec.Execute(ctx, text, w.State().Table.ColumnNames())
	if err != nil {
		w.setBanner(errorBanner(err))
		return QueryResult{}, err
	}
	w.state.update(func(s ExportState) ExportState {
		if s.Phase >= SchemaLoaded {
			s.Phase = QueryOverride
		}
		s.Result = res
		s.Query = text
		s.Banner = info(fmt.Sprintf("query returned %d rows", res.Len()))
		return s
	})
	return res, nil
}

// PreviewJoin shows the first rows of a projection over several joined
// tables in place of the current result, like RunQuery.
func (w *ExportWorkflow) PreviewJoin(ctx context.Context, req types.PreviewRequest) (QueryResult, error) {
	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return QueryResult{}, fail("preview", err)
	}
	defer end()

	res, err := w.exec.PreviewJoin(ctx, req)
	if err != nil {
		w.setBanner(errorBanner(err))
		return QueryResult{}, err
	}
	w.state.update(func(s ExportState) ExportState {
		if s.Phase >= SchemaLoaded {
			s.Phase = QueryOverride
		}
		s.Result = res
		s.Query = ""
		s.Banner = info(fmt.Sprintf("%d rows from %s", res.Len(), strings.Join(req.Tables, ", ")))
		return s
	})
	return res, nil
}

// Export downloads the projected columns of the selected table as format
// and saves the blob as <table>.<format>. On success the workflow passes
// through Exported and settles back on SchemaLoaded.
func (w *ExportWorkflow) Export(ctx context.Context, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != constants.FormatCSV && format != constants.FormatXLSX {
		return "", w.reject(fail("export", fmt.Errorf("%w: format must be csv or xlsx, got %q", ErrMissingField, format)))
	}

	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return "", fail("export", err)
	}
	defer end()

	st := w.State()
	switch {
	case st.Phase < SchemaLoaded || st.Table.Name == "":
		return "", w.reject(fail("export", missing("table")))
	case st.Selection.Empty():
		return "", w.reject(fail("export", missing("columns")))
	}

	table := st.Table.Name
	columns := st.Selection.Projected()
	name := table + "." + format
	job := TransferJob{
		ID:          uuid.NewString(),
		Direction:   DirectionExport,
		Source:      table,
		Destination: name,
		Format:      format,
		Status:      JobPreparing,
	}
	w.state.update(func(s ExportState) ExportState {
		s.Phase = Exporting
		s.Job = job
		s.SavedTo = ""
		return s
	})

	job = job.with(JobInFlight, 0)
	w.state.update(func(s ExportState) ExportState { s.Job = job; return s })

	blob, err := w.remote.Download(ctx, table, format, columns)
	if err != nil {
		return "", w.exportFailed(job, fail("export", err))
	}
	path, err := w.saver.Save(name, blob)
	if err != nil {
		return "", w.exportFailed(job, local("save", err))
	}

	banner := info(fmt.Sprintf("saved %s (%d bytes)", path, len(blob)))
	w.state.update(func(s ExportState) ExportState {
		s.Phase = Exported
		s.Job = job.with(JobSucceeded, 0)
		s.SavedTo = path
		s.Banner = banner
		return s
	})
	w.state.update(func(s ExportState) ExportState {
		s.Phase = SchemaLoaded
		return s
	})
	zerolog.Ctx(ctx).Info().Str("job", job.ID).Str("table", table).Str("path", path).Msg("export finished")
	return path, nil
}

func (w *ExportWorkflow) exportFailed(job TransferJob, f *Failure) error {
	w.state.update(func(s ExportState) ExportState {
		s.Phase = ExportFailed
		s.Job = job.with(JobFailed, f.Reason)
		s.Banner = errorBanner(f)
		return s
	})
	return f
}

// reject reports a local precondition failure without touching the phase.
func (w *ExportWorkflow) reject(f *Failure) error {
	w.setBanner(errorBanner(f))
	return f
}

func (w *ExportWorkflow) setBanner(b Banner) {
	w.state.update(func(s ExportState) ExportState {
		s.Banner = b
		return s
	})
}
