package diagnostics

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/semantic"
)

// Validator runs the semantic pass: every SELECT gets its scopes
// built and hydrated, then table and column references are checked
// against them.
type Validator struct {
	analyzer *semantic.Analyzer
	logger   *zap.Logger
}

// NewValidator creates a semantic validator over the catalog.
func NewValidator(cat catalog.Catalog, logger *zap.Logger) *Validator {
	return &Validator{
		analyzer: semantic.NewAnalyzer(cat, logger),
		logger:   logger.With(zap.String("component", "semantic-validator")),
	}
}

// Semantic validates every top-level SELECT in the tree. Statements
// whose scopes cannot be built (no FROM clause, broken references) are
// skipped; the syntax pass owns those.
func (v *Validator) Semantic(ctx context.Context, root *cst.Node, source string) []Diagnostic {
	var diags []Diagnostic
	cst.Walk(root, func(n *cst.Node) bool {
		if n.Kind() != cst.KindSelectStatement {
			return true
		}
		diags = append(diags, v.validateSelect(ctx, n, source)...)
		return false
	})
	return diags
}

func (v *Validator) validateSelect(ctx context.Context, sel *cst.Node, source string) []Diagnostic {
	analysis, err := v.analyzer.Analyze(ctx, sel, source)
	if err != nil {
		v.logger.Debug("Scope build failed, skipping semantic pass for statement", zap.Error(err))
		return nil
	}

	var diags []Diagnostic
	reported := make(map[string]bool)

	for _, name := range analysis.UnknownTables {
		start, end := tableNameSpan(sel, source, name)
		diags = append(diags, Diagnostic{
			Message:   fmt.Sprintf("Undefined table: '%s'", name),
			Severity:  SeverityError,
			Code:      CodeUndefinedTable,
			StartByte: start,
			EndByte:   end,
		})
		reported[catalog.NormalizeIdentifier(name)] = true
	}

	tableSpans := tableNameSpans(sel)
	for _, ref := range qualifiedRefs(source, sel.StartByte(), sel.EndByte()) {
		// Schema-qualified FROM entries look like t.c to the text scan.
		if insideSpan(tableSpans, ref.start, ref.end) {
			continue
		}
		// References inside a subquery or CTE body resolve against the
		// scope that encloses them, not the statement root.
		scopeID := analysis.ScopeAt(ref.start)
		_, _, err := analysis.ResolveColumn(ref.qualifier, ref.column, scopeID)
		if err == nil {
			continue
		}
		var tableErr *semantic.TableNotFoundError
		var colErr *semantic.ColumnNotFoundError
		switch {
		case errors.As(err, &tableErr):
			if reported[catalog.NormalizeIdentifier(ref.qualifier)] {
				continue
			}
			reported[catalog.NormalizeIdentifier(ref.qualifier)] = true
			diags = append(diags, Diagnostic{
				Message:   fmt.Sprintf("Undefined table: '%s'", ref.qualifier),
				Severity:  SeverityError,
				Code:      CodeUndefinedTable,
				StartByte: ref.start,
				EndByte:   ref.end,
			})
		case errors.As(err, &colErr):
			if cteWithUnknownColumns(analysis, ref.qualifier, scopeID) {
				continue
			}
			diags = append(diags, Diagnostic{
				Message:   fmt.Sprintf("Undefined column: '%s.%s'", ref.qualifier, ref.column),
				Severity:  SeverityError,
				Code:      CodeUndefinedColumn,
				StartByte: ref.start,
				EndByte:   ref.end,
			})
		}
	}

	diags = append(diags, v.checkUnqualifiedColumns(sel, source, analysis)...)
	return diags
}

// checkUnqualifiedColumns flags bare column references visible through
// more than one table. Missing bare columns are left alone; the parse
// is too coarse to tell a column from an expression with confidence.
func (v *Validator) checkUnqualifiedColumns(sel *cst.Node, source string, analysis *semantic.Analysis) []Diagnostic {
	var diags []Diagnostic
	seen := make(map[string]bool)

	cst.Walk(sel, func(n *cst.Node) bool {
		if n.Kind() == cst.KindSubquery {
			return false
		}
		if n.Kind() != cst.KindColumnName {
			return true
		}
		name := n.Text(source)
		if id := n.FirstChildOfKind(cst.KindIdentifier); id != nil {
			name = id.Text(source)
		}
		if name == "" || seen[catalog.NormalizeIdentifier(name)] {
			return false
		}
		seen[catalog.NormalizeIdentifier(name)] = true

		_, _, err := analysis.ResolveColumn("", name, analysis.RootID)
		var ambErr *semantic.AmbiguousColumnError
		if errors.As(err, &ambErr) {
			diags = append(diags, Diagnostic{
				Message:   fmt.Sprintf("Ambiguous column reference: '%s'", name),
				Severity:  SeverityError,
				Code:      CodeAmbiguousColumn,
				StartByte: n.StartByte(),
				EndByte:   n.EndByte(),
			})
		}
		return false
	})
	return diags
}

// tableNameSpan locates the table_name (or bare identifier) whose text
// matches name inside the SELECT; the statement span is the fallback.
func tableNameSpan(sel *cst.Node, source, name string) (int, int) {
	start, end := sel.StartByte(), sel.EndByte()
	cst.Walk(sel, func(n *cst.Node) bool {
		if n.Kind() != cst.KindTableName {
			return true
		}
		text := n.Text(source)
		if id := n.FirstChildOfKind(cst.KindIdentifier); id != nil {
			text = id.Text(source)
		}
		if catalog.IdentifiersEqual(text, name) {
			start, end = n.StartByte(), n.EndByte()
			return false
		}
		return true
	})
	return start, end
}

// tableNameSpans collects the byte spans of every table_name under the
// SELECT.
func tableNameSpans(sel *cst.Node) [][2]int {
	var spans [][2]int
	cst.Walk(sel, func(n *cst.Node) bool {
		if n.Kind() == cst.KindTableName {
			spans = append(spans, [2]int{n.StartByte(), n.EndByte()})
			return false
		}
		return true
	})
	return spans
}

func insideSpan(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start >= s[0] && end <= s[1] {
			return true
		}
	}
	return false
}

// cteWithUnknownColumns reports whether qualifier names a CTE whose
// column set could not be derived, as with a star projection. Column
// checks through such a CTE would all be false positives.
func cteWithUnknownColumns(analysis *semantic.Analysis, qualifier string, scopeID int) bool {
	table, err := analysis.Scopes.ResolveTable(qualifier, scopeID)
	return err == nil && table.IsCTE && len(table.Columns) == 0
}

// qualifiedRef is one t.c occurrence in the source text.
type qualifiedRef struct {
	qualifier  string
	column     string
	start, end int
}

// qualifiedRefs scans [from, to) of the source for ident.ident pairs.
// Text scanning keeps the pass working on partially parsed buffers
// where qualified references sit under ERROR nodes.
func qualifiedRefs(source string, from, to int) []qualifiedRef {
	if to > len(source) {
		to = len(source)
	}
	var refs []qualifiedRef
	i := from
	for i < to {
		if !isWordStart(source[i]) {
			i++
			continue
		}
		start := i
		for i < to && isWordByte(source[i]) {
			i++
		}
		if i >= to || source[i] != '.' {
			continue
		}
		qualifier := source[start:i]
		i++
		colStart := i
		for i < to && isWordByte(source[i]) {
			i++
		}
		if colStart == i || source[i-1] == '.' {
			continue
		}
		refs = append(refs, qualifiedRef{
			qualifier: qualifier,
			column:    source[colStart:i],
			start:     start,
			end:       i,
		})
	}
	return refs
}

func isWordStart(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

func isWordByte(b byte) bool {
	return isWordStart(b) || b >= '0' && b <= '9'
}
