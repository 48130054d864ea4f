package console

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
)

// IngestPhase is the state of the ingest workflow.
type IngestPhase int

const (
	NoFile IngestPhase = iota
	FileSelected
	SchemaInferred
	ColumnsChosen
	Ingesting
	Ingested
	IngestFailed
)

func (p IngestPhase) String() string {
	switch p {
	case NoFile:
		return "NoFile"
	case FileSelected:
		return "FileSelected"
	case SchemaInferred:
		return "SchemaInferred"
	case ColumnsChosen:
		return "ColumnsChosen"
	case Ingesting:
		return "Ingesting"
	case Ingested:
		return "Ingested"
	case IngestFailed:
		return "IngestFailed"
	default:
		return fmt.Sprintf("IngestPhase(%d)", int(p))
	}
}

// IngestState is one immutable snapshot of the ingest workflow.
type IngestState struct {
	Phase IngestPhase
	// File names the buffered file; empty once a transfer has consumed it.
	File      string
	Size      int
	Inferred  Inferred
	Selection Selection
	Delimiter string
	TableName string
	Job       TransferJob
	// RowsProcessed is the boundary's count from the last successful ingest.
	RowsProcessed int
	Banner        Banner
}

// CanIngest reports whether the ingest action is enabled: no ingest is in
// flight, a file is held, at least one column is selected, and both
// delimiter and table name are set.
func (s IngestState) CanIngest() bool {
	return s.Phase != Ingesting && s.missing() == ""
}

func (s IngestState) missing() string {
	switch {
	case s.File == "":
		return "file"
	case s.Selection.Empty():
		return "columns"
	case s.Delimiter == "":
		return "delimiter"
	case strings.TrimSpace(s.TableName) == "":
		return "table name"
	}
	return ""
}

// settle derives the phase from the fields after a local edit.
func (s IngestState) settle() IngestState {
	switch {
	case s.Phase == Ingesting:
	case s.File == "":
		if s.Phase != Ingested && s.Phase != IngestFailed {
			s.Phase = NoFile
		}
	case s.Inferred.Columns == nil:
		s.Phase = FileSelected
	case s.CanIngest():
		s.Phase = ColumnsChosen
	default:
		s.Phase = SchemaInferred
	}
	return s
}

// IngestWorkflow drives file to table ingestion. The file buffer belongs to
// the workflow until a transfer reaches a terminal state.
type IngestWorkflow struct {
	intake *Intake
	remote Remote
	task   *task
	state  snapshots[IngestState]

	mu   sync.Mutex
	file FileBuffer
}

func NewIngestWorkflow(r Remote, maxFileBytes int64, timeout time.Duration) *IngestWorkflow {
	w := &IngestWorkflow{
		intake: NewIntake(r, maxFileBytes),
		remote: r,
		task:   newTask(timeout),
	}
	w.state.state = IngestState{Delimiter: constants.DefaultDelimiter}
	return w
}

func (w *IngestWorkflow) State() IngestState            { return w.state.get() }
func (w *IngestWorkflow) Subscribe(fn func(IngestState)) { w.state.subscribe(fn) }
func (w *IngestWorkflow) Busy() bool                     { return w.task.busy() }
func (w *IngestWorkflow) Cancel()                        { w.task.abort() }

// SelectFile reads path into memory and asks the boundary for its columns,
// parsed with the delimiter in effect at that moment.
func (w *IngestWorkflow) SelectFile(ctx context.Context, path string) error {
	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return fail("select file", err)
	}
	defer end()

	buf, err := w.intake.ReadFile(path)
	if err != nil {
		w.setBanner(errorBanner(err))
		return err
	}
	return w.infer(ctx, buf)
}

// SelectData is SelectFile for an already open reader.
func (w *IngestWorkflow) SelectData(ctx context.Context, name string, r io.Reader) error {
	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return fail("select file", err)
	}
	defer end()

	buf, err := w.intake.Read(name, r)
	if err != nil {
		w.setBanner(errorBanner(err))
		return err
	}
	return w.infer(ctx, buf)
}

func (w *IngestWorkflow) infer(ctx context.Context, buf FileBuffer) error {
	w.mu.Lock()
	w.file = buf
	w.mu.Unlock()

	st := w.state.update(func(s IngestState) IngestState {
		return IngestState{
			Phase:     FileSelected,
			File:      buf.Name,
			Size:      buf.Size(),
			Delimiter: s.Delimiter,
			TableName: s.TableName,
			Banner:    s.Banner,
		}
	})

	inferred, err := w.intake.Infer(ctx, buf, st.Delimiter)
	if err != nil {
		w.setBanner(errorBanner(err))
		return err
	}
	if inferred.Columns == nil {
		inferred.Columns = []string{}
	}
	w.state.update(func(s IngestState) IngestState {
		s.Inferred = inferred
		s.Selection = NewSelection(inferred.Columns)
		s.Banner = info(fmt.Sprintf("%s: %d columns, about %d rows", buf.Name, len(inferred.Columns), inferred.RowCount))
		return s.settle()
	})
	return nil
}

// Toggle flips one inferred column.
func (w *IngestWorkflow) Toggle(name string) IngestState {
	return w.edit(func(s IngestState) IngestState {
		s.Selection = s.Selection.Toggle(name)
		return s
	})
}

// SelectAllColumns selects every inferred column.
func (w *IngestWorkflow) SelectAllColumns() IngestState {
	return w.edit(func(s IngestState) IngestState {
		s.Selection = SelectAll(s.Inferred.Columns)
		return s
	})
}

func (w *IngestWorkflow) SetDelimiter(d string) IngestState {
	return w.edit(func(s IngestState) IngestState {
		s.Delimiter = d
		return s
	})
}

func (w *IngestWorkflow) SetTableName(name string) IngestState {
	return w.edit(func(s IngestState) IngestState {
		s.TableName = name
		return s
	})
}

// Ingest sends the buffered file and the column, delimiter and table choice
// as one request. The boundary applies the projection and its row count is
// the one reported. The buffer is released whatever the outcome.
func (w *IngestWorkflow) Ingest(ctx context.Context) (int, error) {
	ctx, end, err := w.task.begin(ctx)
	if err != nil {
		return 0, fail("ingest", err)
	}
	defer end()

	st := w.State()
	if field := st.missing(); field != "" {
		f := fail("ingest", missing(field))
		w.setBanner(errorBanner(f))
		return 0, f
	}

	w.mu.Lock()
	buf := w.file
	w.mu.Unlock()

	req := types.IngestRequest{
		Columns:   st.Selection.Projected(),
		Delimiter: st.Delimiter,
		TableName: strings.TrimSpace(st.TableName),
	}
	job := TransferJob{
		ID:          uuid.NewString(),
		Direction:   DirectionIngest,
		Source:      buf.Name,
		Destination: req.TableName,
		Format:      formatOf(buf.Name),
		Status:      JobInFlight,
	}
	w.state.update(func(s IngestState) IngestState {
		s.Phase = Ingesting
		s.Job = job
		return s
	})

	resp, err := w.remote.Ingest(ctx, buf.Name, buf.Data, req)
	w.release()

	if err != nil {
		f := fail("ingest", err)
		w.state.update(func(s IngestState) IngestState {
			s.Phase = IngestFailed
			s.File, s.Size = "", 0
			s.Job = job.with(JobFailed, f.Reason)
			s.Banner = errorBanner(f)
			return s
		})
		return 0, f
	}

	w.state.update(func(s IngestState) IngestState {
		s.Phase = Ingested
		s.File, s.Size = "", 0
		s.Job = job.with(JobSucceeded, 0)
		s.RowsProcessed = resp.RowsProcessed
		s.Banner = info(fmt.Sprintf("ingested %d rows into %s", resp.RowsProcessed, req.TableName))
		return s
	})
	zerolog.Ctx(ctx).Info().Str("job", job.ID).Str("table", req.TableName).
		Int("rows", resp.RowsProcessed).Msg("ingest finished")
	return resp.RowsProcessed, nil
}

func (w *IngestWorkflow) release() {
	w.mu.Lock()
	w.file = FileBuffer{}
	w.mu.Unlock()
}

func (w *IngestWorkflow) edit(fn func(IngestState) IngestState) IngestState {
	return w.state.update(func(s IngestState) IngestState {
		return fn(s).settle()
	})
}

func (w *IngestWorkflow) setBanner(b Banner) {
	w.state.update(func(s IngestState) IngestState {
		s.Banner = b
		return s
	})
}

func formatOf(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return constants.FormatXLSX
	}
	return constants.FormatCSV
}
