package csttest

import (
	"fmt"
	"strings"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
)

// Span locates the first occurrence of fragment in text and returns
// its byte span. It panics when the fragment is absent so tests fail
// loudly on a typo.
func Span(text, fragment string) (int, int) {
	idx := strings.Index(text, fragment)
	if idx < 0 {
		panic(fmt.Sprintf("fragment %q not found in %q", fragment, text))
	}
	return idx, idx + len(fragment)
}

// SpanAfter locates fragment starting the search at from.
func SpanAfter(text, fragment string, from int) (int, int) {
	idx := strings.Index(text[from:], fragment)
	if idx < 0 {
		panic(fmt.Sprintf("fragment %q not found in %q after %d", fragment, text, from))
	}
	return from + idx, from + idx + len(fragment)
}

// TableRef describes a FROM-clause table for the SQL tree helpers.
type TableRef struct {
	Name  string
	Alias string
}

// TableReference builds a table_reference node for a table (and
// optional alias) located by substring search in text.
func TableReference(text string, ref TableRef) *NodeBuilder {
	nameStart, nameEnd := Span(text, ref.Name)

	nameNode := NewNode(cst.KindTableName, nameStart, nameEnd).Add(
		NewNode(cst.KindIdentifier, nameStart, nameEnd),
	)

	if ref.Alias == "" {
		return NewNode(cst.KindTableReference, nameStart, nameEnd).Add(nameNode)
	}

	aliasStart, aliasEnd := SpanAfter(text, ref.Alias, nameEnd)
	return NewNode(cst.KindTableReference, nameStart, aliasEnd).Add(
		nameNode,
		NewNode(cst.KindAlias, aliasStart, aliasEnd).Field("alias").Add(
			NewNode(cst.KindIdentifier, aliasStart, aliasEnd),
		),
	)
}

// FromClause builds a from_clause spanning from the FROM keyword to
// the end of text, containing one table_reference per ref.
func FromClause(text string, refs ...TableRef) *NodeBuilder {
	fromStart, _ := Span(text, "FROM")
	b := NewNode(cst.KindFromClause, fromStart, len(text))
	for _, ref := range refs {
		b.Add(TableReference(text, ref))
	}
	return b
}

// SelectStatement builds a select_statement spanning all of text with
// the given clause children.
func SelectStatement(text string, clauses ...*NodeBuilder) *NodeBuilder {
	return NewNode(cst.KindSelectStatement, 0, len(text)).Add(clauses...)
}

// Projection builds a projection node covering the text between
// "SELECT " and the FROM keyword (or end of text), with the given
// children.
func Projection(text string, children ...*NodeBuilder) *NodeBuilder {
	_, selEnd := Span(text, "SELECT")
	start := selEnd
	if start < len(text) && text[start] == ' ' {
		start++
	}
	end := strings.Index(text, "FROM")
	if end < 0 {
		end = len(text)
	} else {
		for end > start && text[end-1] == ' ' {
			end--
		}
	}
	return NewNode(cst.KindProjection, start, end).Add(children...)
}

// Identifier builds an identifier node over the first occurrence of
// name in text.
func Identifier(text, name string) *NodeBuilder {
	start, end := Span(text, name)
	return NewNode(cst.KindIdentifier, start, end)
}

// ColumnName builds a column_name node wrapping an identifier.
func ColumnName(text, name string) *NodeBuilder {
	start, end := Span(text, name)
	return NewNode(cst.KindColumnName, start, end).Add(
		NewNode(cst.KindIdentifier, start, end),
	)
}
