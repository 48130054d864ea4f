package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/dracory/flatbridge/remote"
	"github.com/dracory/flatbridge/shared/types"
)

type download struct {
	table   string
	format  string
	columns []string
}

// fakeRemote records every call and answers from its fields.
type fakeRemote struct {
	mu    sync.Mutex
	calls map[string]int

	tables    []string
	tablesErr error

	schemas map[string][]types.Column

	data     [][]any
	queryErr error
	queries  []string
	onQuery  func()

	joined   [][]any
	previews []types.PreviewRequest

	upload       types.UploadResponse
	uploadErr    error
	uploadDelims []string

	ingestResp types.IngestResponse
	ingestErr  error
	ingests    []types.IngestRequest

	blob        []byte
	downloadErr error
	downloads   []download
	// started and release make Download block until released or cancelled.
	started chan struct{}
	release chan struct{}

	pingMsg string
	pingErr error
	pings   []types.PingRequest

	tokens []string
}

func newFake() *fakeRemote {
	return &fakeRemote{
		calls: map[string]int{},
		schemas: map[string][]types.Column{
			"orders": {{Name: "id", Type: "UInt64"}, {Name: "total", Type: "Float64"}},
		},
		data: [][]any{{1, 9.99}, {2, 19.5}},
		blob: []byte("id,total\n1,9.99\n2,19.5\n"),
	}
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeRemote) ListTables(ctx context.Context) ([]string, error) {
	f.hit("tables")
	return f.tables, f.tablesErr
}

func (f *fakeRemote) Schema(ctx context.Context, table string) ([]types.Column, error) {
	f.hit("schema")
	cols, ok := f.schemas[table]
	if !ok {
		return nil, fmt.Errorf("%w: HTTP 404", remote.ErrNotFound)
	}
	return cols, nil
}

func (f *fakeRemote) Query(ctx context.Context, text string) ([][]any, error) {
	f.hit("query")
	f.mu.Lock()
	f.queries = append(f.queries, text)
	f.mu.Unlock()
	if f.onQuery != nil {
		f.onQuery()
	}
	return f.data, f.queryErr
}

func (f *fakeRemote) PreviewJoin(ctx context.Context, req types.PreviewRequest) ([][]any, error) {
	f.hit("preview")
	f.mu.Lock()
	f.previews = append(f.previews, req)
	f.mu.Unlock()
	return f.joined, f.queryErr
}

func (f *fakeRemote) Upload(ctx context.Context, filename string, data []byte, tableName, delimiter string) (types.UploadResponse, error) {
	f.hit("upload")
	f.mu.Lock()
	f.uploadDelims = append(f.uploadDelims, delimiter)
	f.mu.Unlock()
	return f.upload, f.uploadErr
}

func (f *fakeRemote) Ingest(ctx context.Context, filename string, data []byte, req types.IngestRequest) (types.IngestResponse, error) {
	f.hit("ingest")
	f.mu.Lock()
	f.ingests = append(f.ingests, req)
	f.mu.Unlock()
	return f.ingestResp, f.ingestErr
}

func (f *fakeRemote) Download(ctx context.Context, table, format string, columns []string) ([]byte, error) {
	f.hit("download")
	f.mu.Lock()
	f.downloads = append(f.downloads, download{table: table, format: format, columns: columns})
	f.mu.Unlock()

	if f.release != nil {
		close(f.started)
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", remote.ErrTransport, ctx.Err())
		}
	}
	return f.blob, f.downloadErr
}

func (f *fakeRemote) Ping(ctx context.Context, req types.PingRequest) (string, error) {
	f.hit("ping")
	f.mu.Lock()
	f.pings = append(f.pings, req)
	f.mu.Unlock()
	return f.pingMsg, f.pingErr
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
}
