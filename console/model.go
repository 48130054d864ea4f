// Package console drives the flat file / ClickHouse exchange from the client
// side: catalog, queries, column projection and the export and ingest
// workflows. Every network call goes through Remote.
package console

import (
	"context"
	"fmt"

	"github.com/dracory/flatbridge/shared/types"
)

// DefaultColumnWidth is the display width given to every fetched column.
const DefaultColumnWidth = 150

// Remote is the boundary as the console sees it. *remote.Client implements it.
type Remote interface {
	ListTables(ctx context.Context) ([]string, error)
	Schema(ctx context.Context, table string) ([]types.Column, error)
	Query(ctx context.Context, text string) ([][]any, error)
	PreviewJoin(ctx context.Context, req types.PreviewRequest) ([][]any, error)
	Upload(ctx context.Context, filename string, data []byte, tableName, delimiter string) (types.UploadResponse, error)
	Ingest(ctx context.Context, filename string, data []byte, req types.IngestRequest) (types.IngestResponse, error)
	Download(ctx context.Context, table, format string, columns []string) ([]byte, error)
	Ping(ctx context.Context, req types.PingRequest) (string, error)
	// SetToken replaces the bearer token of every later call.
	SetToken(token string)
}

// ColumnDescriptor is one column of a table. Type is store defined and opaque.
type ColumnDescriptor struct {
	Name  string
	Type  string
	Width int
}

// TableDescriptor is a table with its ordered columns. It is replaced
// wholesale on every fetch.
type TableDescriptor struct {
	Name    string
	Columns []ColumnDescriptor
}

// ColumnNames returns the declared column names in schema order.
func (t TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// QueryResult holds positional rows together with the column names they were
// paired with when the query was submitted.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Len is the record count.
func (q QueryResult) Len() int {
	return len(q.Rows)
}

// Records pairs every row with the column snapshot.
func (q QueryResult) Records() []map[string]any {
	out := make([]map[string]any, len(q.Rows))
	for i, row := range q.Rows {
		rec := make(map[string]any, len(q.Columns))
		for j, col := range q.Columns {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Direction of a transfer.
type Direction string

const (
	DirectionExport Direction = "export"
	DirectionIngest Direction = "ingest"
)

// JobStatus is the lifecycle of a TransferJob.
type JobStatus int

const (
	JobIdle JobStatus = iota
	JobPreparing
	JobInFlight
	JobSucceeded
	JobFailed
)

func (s JobStatus) String() string {
	switch s {
	case JobIdle:
		return "Idle"
	case JobPreparing:
		return "Preparing"
	case JobInFlight:
		return "InFlight"
	case JobSucceeded:
		return "Succeeded"
	case JobFailed:
		return "Failed"
	default:
		return fmt.Sprintf("JobStatus(%d)", int(s))
	}
}

// TransferJob describes one transfer. It lives inside a workflow snapshot
// and is never persisted.
type TransferJob struct {
	ID          string
	Direction   Direction
	Source      string
	Destination string
	Format      string
	Status      JobStatus
	Reason      Reason
}

func (j TransferJob) with(status JobStatus, reason Reason) TransferJob {
	j.Status = status
	j.Reason = reason
	return j
}
