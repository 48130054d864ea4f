// Package storetest opens throwaway sqlite stores for handler tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/store"
)

// Open returns an empty sqlite store in a temp directory, closed on cleanup.
func Open(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(constants.DriverSQLite, path)
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// OpenWithOrders returns a store holding an orders table:
//
//	id | customer | total
//	1  | Ann      | 10.5
//	2  | Bob      | 20
//	3  | Cy       | 7.25
func OpenWithOrders(t *testing.T) *store.Store {
	t.Helper()
	s := Open(t)
	stmts := []string{
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, customer TEXT, total REAL)`,
		`INSERT INTO orders (id, customer, total) VALUES (1, 'Ann', 10.5), (2, 'Bob', 20), (3, 'Cy', 7.25)`,
	}
	for _, q := range stmts {
		if err := s.DB().Exec(q).Error; err != nil {
			t.Fatalf("failed to seed orders: %v", err)
		}
	}
	return s
}
