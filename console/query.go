package console

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dracory/flatbridge/remote"
	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
)

// QueryExecutor runs free-text and preview queries and pairs the positional
// rows with column names.
type QueryExecutor struct {
	remote Remote
}

func NewQueryExecutor(r Remote) *QueryExecutor {
	return &QueryExecutor{remote: r}
}

// PreviewQuery is the implicit query issued when a table is selected.
func PreviewQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, constants.PreviewLimit)
}

// Execute forwards text verbatim. columns is frozen before the call and
// every returned row is paired with that snapshot. With no columns the
// result is named column_1..column_N after the first row.
func (q *QueryExecutor) Execute(ctx context.Context, text string, columns []string) (QueryResult, error) {
	if strings.TrimSpace(text) == "" {
		return QueryResult{}, fail("query", ErrEmptyQuery)
	}
	snapshot := slices.Clone(columns)

	rows, err := q.remote.Query(ctx, text)
	if err != nil {
		return QueryResult{}, fail("query", err)
	}
	if len(snapshot) == 0 && len(rows) > 0 {
		snapshot = positional(len(rows[0]))
	}
	if err := checkWidth(rows, len(snapshot)); err != nil {
		return QueryResult{}, fail("query", err)
	}
	return QueryResult{Columns: snapshot, Rows: rows}, nil
}

// PreviewJoin asks the boundary for the first rows of a projection over
// req.Tables joined by req.JoinConditions. The rows are named by
// req.Columns as given.
func (q *QueryExecutor) PreviewJoin(ctx context.Context, req types.PreviewRequest) (QueryResult, error) {
	switch {
	case len(req.Tables) == 0:
		return QueryResult{}, fail("preview", missing("tables"))
	case len(req.Columns) == 0:
		return QueryResult{}, fail("preview", missing("columns"))
	}
	snapshot := slices.Clone(req.Columns)

	rows, err := q.remote.PreviewJoin(ctx, req)
	if err != nil {
		return QueryResult{}, fail("preview", err)
	}
	if err := checkWidth(rows, len(snapshot)); err != nil {
		return QueryResult{}, fail("preview", err)
	}
	return QueryResult{Columns: snapshot, Rows: rows}, nil
}

func checkWidth(rows [][]any, n int) error {
	for i, row := range rows {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d cells, want %d", remote.ErrProtocol, i, len(row), n)
		}
	}
	return nil
}

// Preview runs PreviewQuery(table) paired with columns.
func (q *QueryExecutor) Preview(ctx context.Context, table string, columns []string) (QueryResult, error) {
	return q.Execute(ctx, PreviewQuery(table), columns)
}

func positional(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("column_%d", i+1)
	}
	return out
}
