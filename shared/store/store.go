// Package store runs the catalog, query and transfer statements of the
// boundary against a GORM connection. ClickHouse is the primary dialect;
// sqlite, mysql, postgres and sqlserver share the same surface.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/flatfile"
	"github.com/dracory/flatbridge/shared/types"
)

var (
	ErrTableNotFound     = errors.New("table not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUnsupportedDriver = errors.New("unsupported driver")
	ErrUnknownColumn     = errors.New("unknown column")
)

var identRe = regexp.MustCompile("^[^\\x00-\\x1f\"`\\[\\].;]{1,128}$")

// ValidIdentifier reports whether name can be quoted safely as a table or column.
func ValidIdentifier(name string) bool {
	return strings.TrimSpace(name) == name && identRe.MatchString(name)
}

// Store wraps a GORM connection and the dialect it speaks.
type Store struct {
	db      *gorm.DB
	dialect string
}

// New wraps db. driver may be any alias accepted by NormalizeDriver.
func New(db *gorm.DB, driver string) *Store {
	return &Store{db: db, dialect: NormalizeDriver(driver)}
}

// Dialect returns the canonical driver name.
func (s *Store) Dialect() string {
	return s.dialect
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks that the store answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListTables returns table names in the current database.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	var q string
	switch s.dialect {
	case constants.DriverClickHouse, constants.DriverMySQL:
		q = `SHOW TABLES`
	case constants.DriverPostgres:
		q = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	case constants.DriverSQLite:
		q = `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	case constants.DriverSQLServer:
		q = `SELECT table_name FROM information_schema.tables
			WHERE table_type = 'BASE TABLE' AND table_catalog = DB_NAME()
			ORDER BY table_name`
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, s.dialect)
	}

	tables := []string{}
	if err := s.db.WithContext(ctx).Raw(q).Scan(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// Describe returns the columns of table in declared order. A table with no
// columns does not exist.
func (s *Store) Describe(ctx context.Context, table string) ([]types.Column, error) {
	if !ValidIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, table)
	}

	var q string
	switch s.dialect {
	case constants.DriverClickHouse:
		q = `SELECT name, type FROM system.columns
			WHERE database = currentDatabase() AND table = ?
			ORDER BY position`
	case constants.DriverPostgres:
		q = `SELECT column_name AS name, data_type AS type FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position`
	case constants.DriverMySQL:
		q = `SELECT column_name AS name, column_type AS type FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`
	case constants.DriverSQLite:
		q = `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
	case constants.DriverSQLServer:
		q = `SELECT column_name AS name, data_type AS type FROM information_schema.columns
			WHERE table_name = ?
			ORDER BY ordinal_position`
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, s.dialect)
	}

	var columns []types.Column
	if err := s.db.WithContext(ctx).Raw(q, table).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return columns, nil
}

// TableExists reports whether table has at least one column.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := s.Describe(ctx, table)
	if errors.Is(err, ErrTableNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Query runs text verbatim and returns the result column names and at most
// limit positional rows. limit <= 0 means no cap.
func (s *Store) Query(ctx context.Context, text string, limit int) ([]string, [][]any, error) {
	rows, err := s.db.WithContext(ctx).Raw(text).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	return scanRows(rows, limit)
}

// Select reads the named columns of table in the order given. Every column
// must exist in the table.
func (s *Store) Select(ctx context.Context, table string, columns []string) ([]string, [][]any, error) {
	declared, err := s.Describe(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	if len(columns) == 0 {
		for _, c := range declared {
			columns = append(columns, c.Name)
		}
	}

	known := make(map[string]bool, len(declared))
	for _, c := range declared {
		known[c.Name] = true
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if !known[c] {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		quoted[i] = s.quote(c)
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), s.quote(table))
	rows, err := s.db.WithContext(ctx).Raw(q).Rows()
	if err != nil {
		return nil, nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	_, data, err := scanRows(rows, 0)
	if err != nil {
		return nil, nil, err
	}
	return columns, data, nil
}

// CreateTable creates table with one nullable column per name if it does not
// exist yet. Numeric kinds become floats, everything else text.
func (s *Store) CreateTable(ctx context.Context, table string, columns []string, kinds []flatfile.Kind) error {
	if !ValidIdentifier(table) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, table)
	}
	if len(columns) == 0 || len(columns) != len(kinds) {
		return errors.New("create table: columns and kinds must match")
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		if !ValidIdentifier(c) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, c)
		}
		defs[i] = s.quote(c) + " " + s.columnType(kinds[i])
	}

	if err := s.db.WithContext(ctx).Exec(s.createTableSQL(table, defs)).Error; err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertRows appends positional rows to table in batches and returns the
// number of rows written.
func (s *Store) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	records := make([]map[string]any, len(rows))
	for r, row := range rows {
		rec := make(map[string]any, len(columns))
		for i, c := range columns {
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = nil
			}
		}
		records[r] = rec
	}

	err := s.db.WithContext(ctx).Table(table).CreateInBatches(records, constants.InsertBatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return len(rows), nil
}

func (s *Store) createTableSQL(table string, defs []string) string {
	cols := strings.Join(defs, ", ")
	switch s.dialect {
	case constants.DriverClickHouse:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s) ENGINE = MergeTree() ORDER BY tuple()", s.quote(table), cols)
	case constants.DriverSQLServer:
		return fmt.Sprintf("IF OBJECT_ID(N%s, N'U') IS NULL CREATE TABLE %s (%s)", sqlString(table), s.quote(table), cols)
	default:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.quote(table), cols)
	}
}

// sqlString renders s as a single quoted SQL literal.
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (s *Store) columnType(k flatfile.Kind) string {
	switch s.dialect {
	case constants.DriverClickHouse:
		if k == flatfile.KindNumber {
			return "Nullable(Float64)"
		}
		return "Nullable(String)"
	case constants.DriverPostgres:
		if k == flatfile.KindNumber {
			return "DOUBLE PRECISION"
		}
		return "TEXT"
	case constants.DriverMySQL:
		if k == flatfile.KindNumber {
			return "DOUBLE"
		}
		return "TEXT"
	case constants.DriverSQLServer:
		if k == flatfile.KindNumber {
			return "FLOAT"
		}
		return "NVARCHAR(MAX)"
	default:
		if k == flatfile.KindNumber {
			return "REAL"
		}
		return "TEXT"
	}
}

func (s *Store) quote(name string) string {
	var b strings.Builder
	s.db.Dialector.QuoteTo(&b, name)
	return b.String()
}

// scanRows reads positional rows. Byte slices become strings so cells
// encode as JSON text.
func scanRows(rows *sql.Rows, limit int) ([]string, [][]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	data := [][]any{}
	for rows.Next() {
		if limit > 0 && len(data) >= limit {
			break
		}
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range cells {
			if b, ok := v.([]byte); ok {
				cells[i] = string(b)
			}
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, data, nil
}
