package lsp

import (
	"context"
	"sync"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// catalogHandle is the swappable catalog the engines hold. A
// configuration push replaces the inner catalog without rebuilding
// the engines; in-flight requests finish against the catalog they
// started with.
type catalogHandle struct {
	mu    sync.RWMutex
	inner catalog.Catalog
}

func newCatalogHandle(inner catalog.Catalog) *catalogHandle {
	return &catalogHandle{inner: inner}
}

// Swap installs next and returns the previous catalog so the caller
// can close it.
func (h *catalogHandle) Swap(next catalog.Catalog) catalog.Catalog {
	h.mu.Lock()
	prev := h.inner
	h.inner = next
	h.mu.Unlock()
	return prev
}

func (h *catalogHandle) current() catalog.Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.inner
}

func (h *catalogHandle) ListTables(ctx context.Context) ([]metadata.TableMetadata, error) {
	return h.current().ListTables(ctx)
}

func (h *catalogHandle) GetColumns(ctx context.Context, tableName string) ([]metadata.ColumnMetadata, error) {
	return h.current().GetColumns(ctx, tableName)
}

func (h *catalogHandle) ListFunctions(ctx context.Context, dialect metadata.Dialect) ([]metadata.FunctionMetadata, error) {
	return h.current().ListFunctions(ctx, dialect)
}

// closeCatalog shuts down a replaced live catalog. The mysql catalog
// and the pgx pool expose different close signatures, so both shapes
// are tried; the static catalog has neither and is skipped.
func closeCatalog(cat catalog.Catalog) {
	switch c := cat.(type) {
	case interface{ Close() error }:
		_ = c.Close()
	case interface{ Close() }:
		c.Close()
	}
}
