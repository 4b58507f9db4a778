package semantic

import (
	"context"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
)

// Analyzer builds the scope tree of a SELECT and hydrates every table
// symbol with column metadata from the catalog.
type Analyzer struct {
	catalog catalog.Catalog
	builder *ScopeBuilder
	logger  *zap.Logger
}

// NewAnalyzer creates an analyzer backed by the given catalog.
func NewAnalyzer(cat catalog.Catalog, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		catalog: cat,
		builder: NewScopeBuilder(logger),
		logger:  logger.With(zap.String("component", "semantic-analyzer")),
	}
}

// Analysis is the result of analyzing one SELECT statement.
type Analysis struct {
	Scopes *ScopeManager
	RootID int
	// UnknownTables lists FROM-clause names the catalog did not
	// recognize. Their symbols stay in scope with no columns so
	// completion degrades instead of failing.
	UnknownTables []string
}

// Analyze builds and hydrates scopes for a select_statement node.
func (a *Analyzer) Analyze(ctx context.Context, selectNode *cst.Node, source string) (*Analysis, error) {
	mgr, rootID, err := a.builder.BuildFromSelect(selectNode, source)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{Scopes: mgr, RootID: rootID}
	cache := make(map[string][]ColumnSymbol)

	for id := 0; id < mgr.ScopeCount(); id++ {
		scope, _ := mgr.Scope(id)
		for i := range scope.Tables {
			table := &scope.Tables[i]
			if table.IsCTE {
				continue
			}
			columns, ok := a.fetchColumns(ctx, cache, table.Name)
			if !ok {
				analysis.UnknownTables = append(analysis.UnknownTables, table.Name)
				continue
			}
			table.Columns = columns
		}
	}

	return analysis, nil
}

func (a *Analyzer) fetchColumns(ctx context.Context, cache map[string][]ColumnSymbol, tableName string) ([]ColumnSymbol, bool) {
	key := catalog.NormalizeIdentifier(tableName)
	if columns, ok := cache[key]; ok {
		return columns, columns != nil
	}

	cols, err := a.catalog.GetColumns(ctx, tableName)
	if err != nil {
		if !catalog.IsNotFound(err) {
			a.logger.Warn("Column lookup failed",
				zap.String("table", tableName), zap.Error(err))
		}
		cache[key] = nil
		return nil, false
	}

	columns := ColumnsFromMetadata(tableName, cols)
	cache[key] = columns
	return columns, true
}

// ScopeAt returns the innermost scope containing the byte offset,
// falling back to the root when no scope spans it.
func (r *Analysis) ScopeAt(offset int) int {
	if id := r.Scopes.InnermostAt(offset); id >= 0 {
		return id
	}
	return r.RootID
}

// ResolveColumn resolves a column reference at scopeID. A non-empty
// qualifier restricts the search to that table or alias.
func (r *Analysis) ResolveColumn(qualifier, name string, scopeID int) (*TableSymbol, *ColumnSymbol, error) {
	if qualifier != "" {
		table, err := r.Scopes.ResolveTable(qualifier, scopeID)
		if err != nil {
			return nil, nil, err
		}
		col, ok := table.FindColumn(name)
		if !ok {
			return nil, nil, &ColumnNotFoundError{Name: qualifier + "." + name}
		}
		return table, &col, nil
	}
	return r.Scopes.ResolveColumn(name, scopeID)
}
