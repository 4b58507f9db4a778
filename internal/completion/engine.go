// Package completion turns a cursor position in a SQL buffer into
// ranked completion items: columns, tables, keywords and functions.
//
// Ranking rides on SortText tiers: 00 wildcard, 01 columns, 02
// keywords, 03 tables, 04 functions. Catalog failures degrade the
// result instead of failing the request; a broken catalog yields
// keywords only, or nothing.
package completion

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/alias"
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	sqlcontext "github.com/woxQAQ/unified-sql-lsp/internal/context"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/keywords"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/internal/semantic"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Engine computes completion items for one catalog.
type Engine struct {
	catalog  catalog.Catalog
	registry *registry.Registry
	resolver *alias.Resolver
	logger   *zap.Logger
}

// NewEngine creates a completion engine over the given catalog and
// function registry.
func NewEngine(cat catalog.Catalog, reg *registry.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		catalog:  cat,
		registry: reg,
		resolver: alias.NewResolver(cat, logger),
		logger:   logger.With(zap.String("component", "completion-engine")),
	}
}

// Complete classifies the cursor position and returns the matching
// items, deduplicated by label and sorted by tier.
func (e *Engine) Complete(ctx context.Context, dialect metadata.Dialect, root *cst.Node, source string, offset int) []Item {
	sctx := sqlcontext.Classify(root, source, offset)
	provider := keywords.NewProvider(dialect)

	var items []Item
	switch sctx.Kind {
	case sqlcontext.KindFromClause:
		items = e.tableItems(ctx, sctx.ExcludeTables)

	case sqlcontext.KindJoinCondition:
		items = e.joinConditionItems(ctx, sctx)

	case sqlcontext.KindSelectProjection:
		items = e.columnItems(ctx, sctx)
		if sctx.Qualifier == "" {
			items = append(items, renderKeywords(provider.For(keywords.ContextSelectClause))...)
			items = append(items, renderFunctions(e.registry.List(dialect))...)
		}

	case sqlcontext.KindWhereClause, sqlcontext.KindHaving:
		items = e.columnItems(ctx, sctx)
		if sctx.Qualifier == "" {
			items = append(items, renderKeywords(provider.For(keywords.ContextExpression))...)
			items = append(items, renderFunctions(e.registry.List(dialect))...)
		}

	case sqlcontext.KindGroupBy:
		items = e.columnItems(ctx, sctx)
		if sctx.Qualifier == "" {
			items = append(items, renderKeywords(provider.For(keywords.ContextAfterGroupBy))...)
		}

	case sqlcontext.KindOrderBy:
		items = e.columnItems(ctx, sctx)
		if sctx.Qualifier == "" {
			items = append(items, renderKeywords(provider.For(keywords.ContextSortDirection))...)
			items = append(items, renderKeywords(provider.For(keywords.ContextAfterOrderBy))...)
		}

	case sqlcontext.KindJoinType:
		items = renderKeywords(provider.For(keywords.ContextJoinType))

	case sqlcontext.KindLimit:
		items = renderKeywords(provider.For(keywords.ContextLimit))

	case sqlcontext.KindKeywords:
		items = renderKeywords(provider.For(keywordContext(sctx.Statement)))

	default:
		return nil
	}

	return finalize(items)
}

// tableItems lists catalog tables for a FROM clause, skipping tables
// the clause already references.
func (e *Engine) tableItems(ctx context.Context, exclude []string) []Item {
	tables, err := e.catalog.ListTables(ctx)
	if err != nil {
		e.logger.Warn("Table listing failed, degrading to empty completion", zap.Error(err))
		return nil
	}

	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[catalog.NormalizeIdentifier(name)] = true
	}

	kept := tables[:0:0]
	for _, t := range tables {
		if excluded[catalog.NormalizeIdentifier(t.Name)] {
			continue
		}
		kept = append(kept, t)
	}
	return renderTables(kept)
}

// columnItems resolves the visible tables and renders their columns.
// A qualifier before the cursor filters the tables and strips the
// qualifier from the inserted text.
func (e *Engine) columnItems(ctx context.Context, sctx sqlcontext.Context) []Item {
	tables := e.resolveVisible(ctx, sctx.VisibleTables)
	if sctx.Qualifier != "" {
		tables = filterByQualifier(tables, sctx.Qualifier)
		if len(tables) == 0 {
			return nil
		}
		return renderColumns(tables, false, true)
	}
	return renderColumns(tables, false, false)
}

// joinConditionItems renders columns from both sides of the join.
// Every column is qualified unless the join uses USING, where bare
// names are the whole point.
func (e *Engine) joinConditionItems(ctx context.Context, sctx sqlcontext.Context) []Item {
	var names []string
	if sctx.LeftTable != "" {
		names = append(names, sctx.LeftTable)
	}
	if sctx.RightTable != "" {
		names = append(names, sctx.RightTable)
	}

	tables := e.resolveVisible(ctx, names)
	if sctx.Qualifier != "" {
		tables = filterByQualifier(tables, sctx.Qualifier)
		if len(tables) == 0 {
			return nil
		}
		return renderColumns(tables, false, true)
	}
	return renderColumns(tables, !sctx.HasUsing, false)
}

func (e *Engine) resolveVisible(ctx context.Context, names []string) []semantic.TableSymbol {
	tables, err := e.resolver.ResolveMany(ctx, names)
	if err != nil {
		e.logger.Warn("Alias resolution failed, degrading to empty completion", zap.Error(err))
		return nil
	}
	return tables
}

func filterByQualifier(tables []semantic.TableSymbol, qualifier string) []semantic.TableSymbol {
	out := tables[:0:0]
	for _, t := range tables {
		if t.Matches(qualifier) {
			out = append(out, t)
		}
	}
	return out
}

// keywordContext maps the statement keyword behind a keywords-only
// position to its keyword set.
func keywordContext(statement string) keywords.Context {
	switch statement {
	case "INSERT":
		return keywords.ContextInsert
	case "UPDATE":
		return keywords.ContextUpdate
	case "DELETE":
		return keywords.ContextDelete
	case "CREATE":
		return keywords.ContextCreate
	case "ALTER":
		return keywords.ContextAlter
	case "DROP":
		return keywords.ContextDrop
	case "UNION":
		return keywords.ContextUnion
	default:
		return keywords.ContextStatementStart
	}
}

// finalize deduplicates by label, earliest wins, and sorts by tier.
func finalize(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, item := range items {
		if seen[item.Label] {
			continue
		}
		seen[item.Label] = true
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortText != out[j].SortText {
			return out[i].SortText < out[j].SortText
		}
		return out[i].Label < out[j].Label
	})
	return out
}
