package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
)

// ErrBadJoin is returned for a join that does not connect the listed tables.
var ErrBadJoin = errors.New("invalid join")

var joinKinds = map[string]string{
	"":      "INNER JOIN",
	"INNER": "INNER JOIN",
	"LEFT":  "LEFT JOIN",
	"RIGHT": "RIGHT JOIN",
	"FULL":  "FULL JOIN",
}

// SelectJoined reads columns from tables[0] joined with the other tables
// through joins, at most limit rows (limit <= 0 means no cap). Every table,
// column and join is checked against the catalog before anything runs, so
// only quoted identifiers reach the statement.
func (s *Store) SelectJoined(ctx context.Context, tables, columns []string, joins []types.JoinCondition, limit int) ([]string, [][]any, error) {
	if len(tables) == 0 {
		return nil, nil, fmt.Errorf("%w: no tables", ErrBadJoin)
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("%w: no columns", ErrUnknownColumn)
	}

	declared := make(map[string]map[string]bool, len(tables))
	for _, t := range tables {
		if _, dup := declared[t]; dup {
			return nil, nil, fmt.Errorf("%w: table %s listed twice", ErrBadJoin, t)
		}
		cols, err := s.Describe(ctx, t)
		if err != nil {
			return nil, nil, err
		}
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c.Name] = true
		}
		declared[t] = set
	}

	selected := make([]string, len(columns))
	for i, c := range columns {
		q, err := s.qualifiedColumn(declared, c)
		if err != nil {
			return nil, nil, err
		}
		selected[i] = q
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if limit > 0 && s.dialect == constants.DriverSQLServer {
		fmt.Fprintf(&b, "TOP %d ", limit)
	}
	b.WriteString(strings.Join(selected, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.quote(tables[0]))

	if len(tables) > 1 {
		joined := map[string]bool{tables[0]: true}
		for _, j := range joins {
			clause, err := s.joinClause(declared, tables[0], j)
			if err != nil {
				return nil, nil, err
			}
			joined[j.RightTable] = true
			b.WriteString(" ")
			b.WriteString(clause)
		}
		for _, t := range tables[1:] {
			if !joined[t] {
				return nil, nil, fmt.Errorf("%w: table %s is not joined", ErrBadJoin, t)
			}
		}
	}
	if limit > 0 && s.dialect != constants.DriverSQLServer {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}

	rows, err := s.db.WithContext(ctx).Raw(b.String()).Rows()
	if err != nil {
		return nil, nil, fmt.Errorf("preview: %w", err)
	}
	defer rows.Close()

	_, data, err := scanRows(rows, limit)
	if err != nil {
		return nil, nil, err
	}
	return columns, data, nil
}

// qualifiedColumn quotes "column" or "table.column". A bare column must
// exist in at least one table; ambiguity is left to the store.
func (s *Store) qualifiedColumn(declared map[string]map[string]bool, name string) (string, error) {
	if table, col, ok := strings.Cut(name, "."); ok {
		cols, known := declared[table]
		if !known {
			return "", fmt.Errorf("%w: %s is not one of the listed tables", ErrUnknownColumn, name)
		}
		if !cols[col] {
			return "", fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
		return s.quote(table) + "." + s.quote(col), nil
	}
	for _, cols := range declared {
		if cols[name] {
			return s.quote(name), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownColumn, name)
}

func (s *Store) joinClause(declared map[string]map[string]bool, from string, j types.JoinCondition) (string, error) {
	kind, ok := joinKinds[strings.ToUpper(strings.TrimSpace(j.JoinType))]
	if !ok {
		return "", fmt.Errorf("%w: join type %q", ErrBadJoin, j.JoinType)
	}
	if j.RightTable == from {
		return "", fmt.Errorf("%w: cannot join %s onto itself", ErrBadJoin, from)
	}
	left, err := s.qualifiedColumn(declared, j.LeftTable+"."+j.LeftColumn)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadJoin, err)
	}
	right, err := s.qualifiedColumn(declared, j.RightTable+"."+j.RightColumn)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadJoin, err)
	}
	return fmt.Sprintf("%s %s ON %s = %s", kind, s.quote(j.RightTable), left, right), nil
}
