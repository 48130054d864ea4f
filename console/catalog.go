package console

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dracory/flatbridge/remote"
)

// Catalog lists tables and fetches schemas. The last good table list is
// kept across failures.
type Catalog struct {
	remote Remote

	mu     sync.RWMutex
	tables []string
}

func NewCatalog(r Remote) *Catalog {
	return &Catalog{remote: r}
}

// ListTables refreshes the table list. On failure the cached list is left
// as it was and the error wraps ErrCatalogUnavailable.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	tables, err := c.remote.ListTables(ctx)
	if err != nil {
		return nil, fail("list tables", fmt.Errorf("%w: %w", ErrCatalogUnavailable, err))
	}

	c.mu.Lock()
	c.tables = slices.Clone(tables)
	c.mu.Unlock()
	return tables, nil
}

// Tables returns the cached table list.
func (c *Catalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tables)
}

// FetchSchema returns the ordered columns of table. The name goes to the
// boundary unchecked; a 404 comes back as ErrSchemaNotFound.
func (c *Catalog) FetchSchema(ctx context.Context, table string) (TableDescriptor, error) {
	cols, err := c.remote.Schema(ctx, table)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			err = fmt.Errorf("%w: %s: %w", ErrSchemaNotFound, table, err)
		}
		return TableDescriptor{}, fail("fetch schema", err)
	}

	desc := TableDescriptor{Name: table, Columns: make([]ColumnDescriptor, len(cols))}
	for i, col := range cols {
		desc.Columns[i] = ColumnDescriptor{Name: col.Name, Type: col.Type, Width: DefaultColumnWidth}
	}
	return desc, nil
}
