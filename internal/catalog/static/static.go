// Package static provides an in-memory catalog backed by fixture
// data. It is used for tests and for editing sessions with no database
// connection configured.
package static

import (
	"context"
	"sort"
	"sync"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Catalog is an immutable in-memory catalog. Safe for concurrent use.
type Catalog struct {
	mu     sync.RWMutex
	tables []metadata.TableMetadata
	funcs  *registry.Registry
}

// New creates a catalog over the given tables. Tables are kept in
// stable (schema, name) order regardless of insertion order.
func New(tables ...metadata.TableMetadata) *Catalog {
	c := &Catalog{funcs: registry.NewRegistry()}
	c.tables = append(c.tables, tables...)
	sortTables(c.tables)
	return c
}

// AddTable inserts or replaces a table, keeping the stable order.
func (c *Catalog) AddTable(table metadata.TableMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.tables {
		if t.Schema == table.Schema && catalog.IdentifiersEqual(t.Name, table.Name) {
			c.tables[i] = table
			return
		}
	}
	c.tables = append(c.tables, table)
	sortTables(c.tables)
}

// ListTables returns all tables in (schema, name) order.
func (c *Catalog) ListTables(ctx context.Context) ([]metadata.TableMetadata, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]metadata.TableMetadata, len(c.tables))
	copy(out, c.tables)
	return out, nil
}

// GetColumns returns the columns of the named table, matching
// case-insensitively and ignoring quoting.
func (c *Catalog) GetColumns(ctx context.Context, tableName string) ([]metadata.ColumnMetadata, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, t := range c.tables {
		if catalog.IdentifiersEqual(t.Name, tableName) {
			out := make([]metadata.ColumnMetadata, len(t.Columns))
			copy(out, t.Columns)
			return out, nil
		}
	}
	return nil, &catalog.NotFoundError{What: "table", Name: tableName}
}

// ListFunctions returns the built-in functions for the dialect.
func (c *Catalog) ListFunctions(ctx context.Context, dialect metadata.Dialect) ([]metadata.FunctionMetadata, error) {
	return c.funcs.List(dialect), nil
}

func sortTables(tables []metadata.TableMetadata) {
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Schema != tables[j].Schema {
			return tables[i].Schema < tables[j].Schema
		}
		return tables[i].Name < tables[j].Name
	})
}
