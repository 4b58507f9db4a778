// Package symbols builds the document outline: one node per top-level
// SELECT, its referenced tables as children, and each table's catalog
// columns as grandchildren.
package symbols

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Kind classifies an outline node. The LSP layer maps these to symbol
// kinds.
type Kind string

const (
	KindQuery  Kind = "query"
	KindTable  Kind = "table"
	KindColumn Kind = "column"
)

// Symbol is one outline node. Spans are byte offsets into the source;
// SelectionStart/SelectionEnd cover just the symbol's name.
type Symbol struct {
	Name           string
	Detail         string
	Kind           Kind
	StartByte      int
	EndByte        int
	SelectionStart int
	SelectionEnd   int
	Children       []Symbol
}

// Engine extracts document symbols and enriches them from the catalog.
type Engine struct {
	catalog catalog.Catalog
	logger  *zap.Logger
}

// NewEngine creates a symbols engine.
func NewEngine(cat catalog.Catalog, logger *zap.Logger) *Engine {
	return &Engine{
		catalog: cat,
		logger:  logger.With(zap.String("component", "symbols-engine")),
	}
}

// DocumentSymbols walks the tree and returns one query symbol per
// top-level SELECT. Column fetches fan out concurrently; a failed
// table keeps an empty column list, and only the failure of every
// table in the document is an error.
func (e *Engine) DocumentSymbols(ctx context.Context, root *cst.Node, source string) ([]Symbol, error) {
	selects := topLevelSelects(root)
	if len(selects) == 0 {
		return nil, nil
	}

	var symbols []Symbol
	var refs []tableRef
	refsPerQuery := make([][]tableRef, len(selects))
	for i, sel := range selects {
		refsPerQuery[i] = collectTableRefs(sel, source)
		refs = append(refs, refsPerQuery[i]...)
	}

	columns, failures := e.fetchColumns(ctx, refs)
	if len(refs) > 0 && failures == len(refs) {
		return nil, &MetadataUnavailableError{Tables: len(refs)}
	}

	idx := 0
	for i, sel := range selects {
		query := Symbol{
			Name:           "SELECT",
			Detail:         "Query",
			Kind:           KindQuery,
			StartByte:      sel.StartByte(),
			EndByte:        sel.EndByte(),
			SelectionStart: sel.StartByte(),
			SelectionEnd:   sel.EndByte(),
		}
		for _, ref := range refsPerQuery[i] {
			query.Children = append(query.Children, tableSymbol(ref, columns[idx]))
			idx++
		}
		symbols = append(symbols, query)
	}
	return symbols, nil
}

// fetchColumns loads column metadata for every reference concurrently.
// The i-th result slot matches the i-th reference; failed lookups stay
// nil and are counted.
func (e *Engine) fetchColumns(ctx context.Context, refs []tableRef) ([][]metadata.ColumnMetadata, int) {
	columns := make([][]metadata.ColumnMetadata, len(refs))
	errs := make([]error, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			cols, err := e.catalog.GetColumns(gctx, ref.name)
			if err != nil {
				errs[i] = err
				return nil
			}
			columns[i] = cols
			return nil
		})
	}
	_ = g.Wait()

	failures := 0
	for i, err := range errs {
		if err != nil {
			failures++
			e.logger.Debug("Column fetch failed, table degrades to empty outline",
				zap.String("table", refs[i].name), zap.Error(err))
		}
	}
	return columns, failures
}

func tableSymbol(ref tableRef, cols []metadata.ColumnMetadata) Symbol {
	s := Symbol{
		Name:           ref.display(),
		Detail:         "Table",
		Kind:           KindTable,
		StartByte:      ref.start,
		EndByte:        ref.end,
		SelectionStart: ref.selStart,
		SelectionEnd:   ref.selEnd,
	}

	ordered := make([]metadata.ColumnMetadata, len(cols))
	copy(ordered, cols)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.IsPrimaryKey != b.IsPrimaryKey {
			return a.IsPrimaryKey
		}
		if a.IsForeignKey != b.IsForeignKey {
			return a.IsForeignKey
		}
		return a.Name < b.Name
	})

	for _, col := range ordered {
		s.Children = append(s.Children, Symbol{
			Name:           col.Name,
			Detail:         columnDetail(col),
			Kind:           KindColumn,
			StartByte:      ref.selStart,
			EndByte:        ref.selEnd,
			SelectionStart: ref.selStart,
			SelectionEnd:   ref.selEnd,
		})
	}
	return s
}

func columnDetail(col metadata.ColumnMetadata) string {
	detail := col.DataType.String()
	if col.IsPrimaryKey {
		detail += " PK"
	}
	if col.IsForeignKey {
		detail += " FK"
	}
	return detail
}

// topLevelSelects collects select_statement nodes without descending
// into them, so subqueries do not produce their own outline entries.
func topLevelSelects(root *cst.Node) []*cst.Node {
	var out []*cst.Node
	cst.Walk(root, func(n *cst.Node) bool {
		if n.Kind() == cst.KindSelectStatement {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// tableRef is one table reference with its document spans.
type tableRef struct {
	name             string
	alias            string
	start, end       int
	selStart, selEnd int
}

func (r tableRef) display() string {
	if r.alias != "" {
		return r.alias
	}
	return r.name
}

// collectTableRefs gathers the FROM and JOIN tables of one SELECT,
// skipping subqueries.
func collectTableRefs(sel *cst.Node, source string) []tableRef {
	var refs []tableRef
	cst.Walk(sel, func(n *cst.Node) bool {
		switch n.Kind() {
		case cst.KindTableReference:
			if ref, ok := parseReference(n, source); ok {
				refs = append(refs, ref)
			}
			return false
		case cst.KindJoinClause:
			if ref, ok := parseJoinTable(n, source); ok {
				refs = append(refs, ref)
			}
			return false
		case cst.KindSubquery:
			return false
		}
		return true
	})
	return refs
}

func parseReference(node *cst.Node, source string) (tableRef, bool) {
	tn := node.FirstChildOfKind(cst.KindTableName)
	ref := tableRef{start: node.StartByte(), end: node.EndByte()}

	if tn != nil {
		ref.name = nodeIdentifier(tn, source)
		ref.selStart, ref.selEnd = tn.StartByte(), tn.EndByte()
	}

	for _, child := range node.Children() {
		switch child.Kind() {
		case cst.KindAlias:
			ref.alias = nodeIdentifier(child, source)
		case cst.KindIdentifier:
			if ref.name == "" {
				ref.name = child.Text(source)
				ref.selStart, ref.selEnd = child.StartByte(), child.EndByte()
			} else if ref.alias == "" && child.StartByte() >= ref.selEnd {
				ref.alias = child.Text(source)
			}
		}
	}
	return ref, ref.name != ""
}

func parseJoinTable(join *cst.Node, source string) (tableRef, bool) {
	tn := join.FirstChildOfKind(cst.KindTableName)
	if tn == nil {
		return tableRef{}, false
	}
	ref := tableRef{
		name:     nodeIdentifier(tn, source),
		start:    join.StartByte(),
		end:      join.EndByte(),
		selStart: tn.StartByte(),
		selEnd:   tn.EndByte(),
	}
	if alias := join.FirstChildOfKind(cst.KindAlias); alias != nil {
		ref.alias = nodeIdentifier(alias, source)
	} else {
		for _, child := range join.Children() {
			if child.Kind() == cst.KindIdentifier && child.StartByte() >= tn.EndByte() {
				ref.alias = child.Text(source)
				break
			}
		}
	}
	return ref, ref.name != ""
}

func nodeIdentifier(node *cst.Node, source string) string {
	if id := node.FirstChildOfKind(cst.KindIdentifier); id != nil {
		return id.Text(source)
	}
	return node.Text(source)
}
