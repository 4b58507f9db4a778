package completion

import (
	"fmt"
	"strings"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/keywords"
	"github.com/woxQAQ/unified-sql-lsp/internal/semantic"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// wildcardItem completes "*" in column positions. It always sorts
// first.
func wildcardItem() Item {
	return Item{
		Label:         "*",
		Kind:          ItemField,
		Detail:        "All columns",
		Documentation: "Selects all columns from all tables in the FROM clause",
		SortText:      "00_wildcard",
		InsertText:    "*",
	}
}

// renderColumns emits column items for the given tables. A column name
// shared by several tables is qualified with each table's display name
// so the items stay distinguishable; forceQualifier qualifies every
// column. bareOnly suppresses qualification entirely, used when the
// buffer already carries the qualifier before the cursor.
func renderColumns(tables []semantic.TableSymbol, forceQualifier, bareOnly bool) []Item {
	counts := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			counts[catalog.NormalizeIdentifier(c.Name)]++
		}
	}

	items := []Item{wildcardItem()}
	for _, t := range tables {
		for _, c := range t.Columns {
			ambiguous := counts[catalog.NormalizeIdentifier(c.Name)] > 1
			qualified := !bareOnly && (forceQualifier || ambiguous)
			items = append(items, columnItem(c, t, qualified))
		}
	}
	return items
}

func columnItem(col semantic.ColumnSymbol, table semantic.TableSymbol, qualified bool) Item {
	label := col.Name
	if qualified {
		label = table.DisplayName() + "." + col.Name
	}
	return Item{
		Label:      label,
		Kind:       ItemField,
		Detail:     col.DataType.String(),
		SortText:   "01_" + strings.ToLower(col.Name),
		FilterText: col.Name,
		InsertText: label,
	}
}

// renderTables emits table items for a FROM clause. Labels are
// schema-qualified when the catalog spans more than one schema or any
// schema other than public.
func renderTables(tables []metadata.TableMetadata) []Item {
	qualify := schemaQualified(tables)

	items := make([]Item, 0, len(tables))
	for _, t := range tables {
		label := t.Name
		if qualify {
			label = t.Schema + "." + t.Name
		}
		items = append(items, Item{
			Label:         label,
			Kind:          ItemClass,
			Detail:        fmt.Sprintf("%s.%s [%s]", t.Schema, t.Name, strings.ToUpper(string(t.TableType))),
			Documentation: tableDocumentation(t),
			SortText:      fmt.Sprintf("03_%s_%s", strings.ToLower(t.Schema), strings.ToLower(t.Name)),
			FilterText:    t.Name,
			InsertText:    label,
		})
	}
	return items
}

// schemaQualified reports whether FROM-clause labels need a schema
// prefix.
func schemaQualified(tables []metadata.TableMetadata) bool {
	schemas := make(map[string]bool)
	for _, t := range tables {
		schemas[t.Schema] = true
		if t.Schema != "public" {
			return true
		}
	}
	return len(schemas) > 1
}

func tableDocumentation(t metadata.TableMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d columns", len(t.Columns))
	if n := len(t.Columns); n > 0 && n <= 5 {
		names := make([]string, n)
		for i, c := range t.Columns {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, ": %s", strings.Join(names, ", "))
	}
	if t.Comment != "" {
		fmt.Fprintf(&b, "\n\n%s", t.Comment)
	}
	if t.RowCountEstimate > 0 {
		fmt.Fprintf(&b, "\n\n~%d rows", t.RowCountEstimate)
	}
	return b.String()
}

func renderKeywords(set []keywords.Keyword) []Item {
	items := make([]Item, 0, len(set))
	for _, k := range set {
		items = append(items, Item{
			Label:      k.Label,
			Kind:       ItemKeyword,
			Detail:     k.Description,
			SortText:   fmt.Sprintf("02_%02d_%s", k.Priority, strings.ToLower(k.Label)),
			InsertText: k.Label,
		})
	}
	return items
}

func renderFunctions(funcs []metadata.FunctionMetadata) []Item {
	items := make([]Item, 0, len(funcs))
	for _, f := range funcs {
		items = append(items, Item{
			Label:         f.Name,
			Kind:          ItemFunction,
			Detail:        f.Signature(),
			Documentation: f.Description,
			SortText:      "04_" + strings.ToLower(f.Name),
			InsertText:    f.Name,
		})
	}
	return items
}
