// Package hover renders markdown hover cards for the symbol under the
// cursor: functions, tables, table aliases and columns, in that
// resolution order.
package hover

import (
	"context"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/alias"
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	sqlcontext "github.com/woxQAQ/unified-sql-lsp/internal/context"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/internal/semantic"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Engine resolves hover requests against the catalog and function
// registry.
type Engine struct {
	catalog  catalog.Catalog
	registry *registry.Registry
	resolver *alias.Resolver
	logger   *zap.Logger
}

// NewEngine creates a hover engine.
func NewEngine(cat catalog.Catalog, reg *registry.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		catalog:  cat,
		registry: reg,
		resolver: alias.NewResolver(cat, logger),
		logger:   logger.With(zap.String("component", "hover-engine")),
	}
}

// Hover returns the markdown card for the word at offset, or false
// when nothing under the cursor resolves. Catalog failures resolve to
// nothing rather than an error.
func (e *Engine) Hover(ctx context.Context, dialect metadata.Dialect, root *cst.Node, source string, offset int) (string, bool) {
	word := wordAt(root, source, offset)
	if word == "" {
		return "", false
	}

	if f, ok := e.registry.Lookup(dialect, word); ok {
		return functionCard(f), true
	}

	sctx := sqlcontext.Classify(root, source, offset)

	if sctx.Kind == sqlcontext.KindFromClause || sctx.Kind == sqlcontext.KindJoinCondition {
		if t, ok := e.lookupTable(ctx, word); ok {
			return tableCard(t), true
		}
		if name := e.resolveAlias(ctx, word); name != "" {
			return aliasCard(word, name), true
		}
	}

	if sctx.IsColumnContext() {
		if col, ok := e.lookupColumn(ctx, sctx, word); ok {
			return columnCard(col), true
		}
	}

	if t, ok := e.lookupTable(ctx, word); ok {
		return tableCard(t), true
	}
	return "", false
}

// lookupTable finds a catalog table by real name.
func (e *Engine) lookupTable(ctx context.Context, name string) (metadata.TableMetadata, bool) {
	tables, err := e.catalog.ListTables(ctx)
	if err != nil {
		e.logger.Warn("Table listing failed during hover", zap.Error(err))
		return metadata.TableMetadata{}, false
	}
	for _, t := range tables {
		if catalog.IdentifiersEqual(t.Name, name) {
			return t, true
		}
	}
	return metadata.TableMetadata{}, false
}

// resolveAlias maps an alias to its table name, empty when no
// non-trivial strategy matches.
func (e *Engine) resolveAlias(ctx context.Context, word string) string {
	res, err := e.resolver.Resolve(ctx, word)
	if err != nil || res == nil {
		return ""
	}
	return res.Table.Name
}

// lookupColumn resolves word as a column of the visible tables. A
// qualifier restricts the search to the matching table; otherwise the
// first table carrying the column wins.
func (e *Engine) lookupColumn(ctx context.Context, sctx sqlcontext.Context, word string) (semantic.ColumnSymbol, bool) {
	visible := sctx.VisibleTables
	if sctx.Kind == sqlcontext.KindJoinCondition {
		if sctx.LeftTable != "" {
			visible = append(visible, sctx.LeftTable)
		}
		if sctx.RightTable != "" {
			visible = append(visible, sctx.RightTable)
		}
	}

	tables, err := e.resolver.ResolveMany(ctx, visible)
	if err != nil {
		e.logger.Warn("Alias resolution failed during hover", zap.Error(err))
		return semantic.ColumnSymbol{}, false
	}

	for _, t := range tables {
		if sctx.Qualifier != "" && !t.Matches(sctx.Qualifier) {
			continue
		}
		if col, ok := t.FindColumn(word); ok {
			return col, true
		}
	}
	return semantic.ColumnSymbol{}, false
}

// wordAt extracts the identifier under the cursor, preferring the CST
// token when the tree places one there, stripping identifier quoting.
func wordAt(root *cst.Node, source string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}

	if node := cst.NamedDescendantForByte(root, offset); node != nil {
		switch node.Kind() {
		case cst.KindIdentifier, cst.KindTableName, cst.KindColumnName:
			return stripQuotes(node.Text(source))
		}
	}

	start, end := offset, offset
	for start > 0 && isWordByte(source[start-1]) {
		start--
	}
	for end < len(source) && isWordByte(source[end]) {
		end++
	}
	return stripQuotes(source[start:end])
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '`' && s[len(s)-1] == '`') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}
