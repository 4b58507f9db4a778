package context

import (
	"strings"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
)

// Classify determines the completion context at a byte offset. It
// prefers the CST ancestor walk; when the tree is missing or too
// broken to place the cursor, it falls back to scanning the text
// before the cursor for the last clause keyword.
func Classify(root *cst.Node, source string, offset int) Context {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}

	qualifier := qualifierBefore(source, offset)

	node := cst.NamedDescendantForByte(root, offset)
	if node == nil {
		return classifyFromText(source, offset, qualifier)
	}

	for n := node; n != nil; n = n.Parent() {
		switch n.Kind() {
		case cst.KindFromClause:
			return Context{
				Kind:          KindFromClause,
				ExcludeTables: tableNames(n, source),
			}

		case cst.KindJoinClause:
			return classifyJoin(n, source, qualifier)

		case cst.KindWhereClause:
			return columnContext(KindWhereClause, n, source, qualifier)

		case cst.KindGroupByClause:
			return columnContext(KindGroupBy, n, source, qualifier)

		case cst.KindOrderByClause:
			return columnContext(KindOrderBy, n, source, qualifier)

		case cst.KindHavingClause:
			return columnContext(KindHaving, n, source, qualifier)

		case cst.KindLimitClause:
			return Context{Kind: KindLimit}

		case cst.KindSelectStatement:
			if inProjection(n, offset) {
				ctx := columnContext(KindSelectProjection, n, source, qualifier)
				if len(ctx.VisibleTables) == 0 {
					ctx.VisibleTables = tablesFromText(source)
				}
				return ctx
			}
		}
	}

	return classifyFromText(source, offset, qualifier)
}

// classifyJoin distinguishes "JOIN |" (still naming the table, so
// offer tables) from "JOIN t ON |" (offer columns of both sides).
func classifyJoin(join *cst.Node, source string, qualifier string) Context {
	right := ""
	if tn := join.FirstChildOfKind(cst.KindTableName); tn != nil {
		right = displayName(join, tn, source)
	} else if ref := join.FirstChildOfKind(cst.KindTableReference); ref != nil {
		right = referenceDisplayName(ref, source)
	}

	if right == "" {
		sel := cst.AncestorOfKind(join, cst.KindSelectStatement)
		var exclude []string
		if sel != nil {
			exclude = tableNames(sel, source)
		}
		return Context{Kind: KindFromClause, ExcludeTables: exclude}
	}

	left := ""
	if parent := join.Parent(); parent != nil {
		for _, sibling := range parent.Children() {
			if sibling == join {
				break
			}
			if sibling.Kind() == cst.KindTableReference {
				left = referenceDisplayName(sibling, source)
			}
			if sibling.Kind() == cst.KindJoinClause {
				if tn := sibling.FirstChildOfKind(cst.KindTableName); tn != nil {
					left = displayName(sibling, tn, source)
				}
			}
		}
	}

	return Context{
		Kind:       KindJoinCondition,
		LeftTable:  left,
		RightTable: right,
		Qualifier:  qualifier,
		HasUsing:   join.FirstChildOfKind(cst.KindUsingClause) != nil,
	}
}

// columnContext builds a column-completion context with the tables
// visible from the enclosing SELECT.
func columnContext(kind Kind, n *cst.Node, source string, qualifier string) Context {
	sel := cst.AncestorOfKind(n, cst.KindSelectStatement)
	var tables []string
	if sel != nil {
		tables = tableNames(sel, source)
	}
	if len(tables) == 0 {
		tables = tablesFromText(source)
	}
	return Context{Kind: kind, VisibleTables: tables, Qualifier: qualifier}
}

// inProjection reports whether the offset falls in the projection part
// of a SELECT: inside the projection node when present, otherwise
// anywhere before the FROM clause.
func inProjection(sel *cst.Node, offset int) bool {
	if proj := sel.FirstChildOfKind(cst.KindProjection); proj != nil && proj.ContainsByte(offset) {
		return true
	}
	if from := sel.FirstChildOfKind(cst.KindFromClause); from != nil {
		return offset < from.StartByte()
	}
	return true
}

// tableNames collects the display names of every table referenced
// under n (FROM entries and joined tables).
func tableNames(n *cst.Node, source string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	cst.Walk(n, func(c *cst.Node) bool {
		switch c.Kind() {
		case cst.KindTableReference:
			add(referenceDisplayName(c, source))
			return false
		case cst.KindJoinClause:
			if tn := c.FirstChildOfKind(cst.KindTableName); tn != nil {
				add(displayName(c, tn, source))
			}
			return false
		case cst.KindSubquery:
			return false
		}
		return true
	})
	return out
}

// referenceDisplayName reads the display name of a table_reference:
// the alias when present, else the table name.
func referenceDisplayName(ref *cst.Node, source string) string {
	if alias := ref.FirstChildOfKind(cst.KindAlias); alias != nil {
		return identifierText(alias, source)
	}

	name := ""
	for _, child := range ref.Children() {
		switch child.Kind() {
		case cst.KindTableName:
			if name == "" {
				name = identifierText(child, source)
			}
		case cst.KindIdentifier:
			if name == "" {
				name = child.Text(source)
			} else {
				// Trailing bare identifier is an implicit alias.
				return child.Text(source)
			}
		}
	}
	return name
}

// displayName reads the display name of a table introduced by node
// whose table_name child is tn: an alias node or trailing identifier
// wins over the raw name.
func displayName(node, tn *cst.Node, source string) string {
	if alias := node.FirstChildOfKind(cst.KindAlias); alias != nil {
		return identifierText(alias, source)
	}
	for _, child := range node.Children() {
		if child.Kind() == cst.KindIdentifier && child.StartByte() >= tn.EndByte() {
			return child.Text(source)
		}
	}
	return identifierText(tn, source)
}

func identifierText(node *cst.Node, source string) string {
	if id := node.FirstChildOfKind(cst.KindIdentifier); id != nil {
		return id.Text(source)
	}
	return node.Text(source)
}

// qualifierBefore extracts the identifier before a dot immediately
// preceding the cursor (skipping the partial word being typed), so
// both "u.|" and "u.em|" yield "u".
func qualifierBefore(source string, offset int) string {
	i := offset
	for i > 0 && isWordByte(source[i-1]) {
		i--
	}
	if i == 0 || source[i-1] != '.' {
		return ""
	}
	end := i - 1
	start := end
	for start > 0 && isWordByte(source[start-1]) {
		start--
	}
	if start == end {
		return ""
	}
	return source[start:end]
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

var clauseTerminators = []string{
	"WHERE", "GROUP BY", "ORDER BY", "HAVING", "LIMIT", "ON", "USING", "UNION",
}

// tablesFromText extracts table display names from the FROM clause by
// text scanning, for buffers too broken to parse.
func tablesFromText(source string) []string {
	upper := strings.ToUpper(source)
	fromIdx := lastKeywordIndex(upper, "FROM")
	if fromIdx < 0 {
		return nil
	}
	clause := source[fromIdx+len("FROM"):]
	clauseUpper := upper[fromIdx+len("FROM"):]
	end := len(clause)
	for _, kw := range clauseTerminators {
		if idx := keywordIndex(clauseUpper, kw); idx >= 0 && idx < end {
			end = idx
		}
	}
	clause = strings.TrimRight(strings.TrimSpace(clause[:end]), ";")

	var out []string
	for _, part := range strings.Split(clause, ",") {
		words := strings.Fields(part)
		name, alias := "", ""
		for i := 0; i < len(words); i++ {
			w := strings.ToUpper(words[i])
			switch w {
			case "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS", "NATURAL", "STRAIGHT_JOIN":
				name, alias = "", ""
				continue
			case "AS":
				continue
			}
			if name == "" {
				name = words[i]
			} else if alias == "" {
				alias = words[i]
			}
			// Flush at a join boundary inside the same part.
			if i+1 < len(words) {
				next := strings.ToUpper(words[i+1])
				if next == "JOIN" || next == "INNER" || next == "LEFT" || next == "RIGHT" ||
					next == "FULL" || next == "CROSS" || next == "NATURAL" || next == "STRAIGHT_JOIN" {
					out = appendDisplay(out, name, alias)
					name, alias = "", ""
				}
			}
		}
		out = appendDisplay(out, name, alias)
	}
	return out
}

func appendDisplay(out []string, name, alias string) []string {
	if name == "" {
		return out
	}
	if alias != "" {
		return append(out, alias)
	}
	return append(out, name)
}

// classifyFromText decides the context by the last clause keyword
// before the cursor.
func classifyFromText(source string, offset int, qualifier string) Context {
	before := source[:offset]
	upper := strings.ToUpper(before)
	trimmed := strings.TrimSpace(before)

	if trimmed == "" || len(trimmed) < 3 {
		return Context{Kind: KindKeywords}
	}

	type rule struct {
		keyword string
		make    func() Context
	}
	rules := []rule{
		{"UNION", func() Context { return Context{Kind: KindKeywords, Statement: "UNION"} }},
		{"ORDER BY", func() Context {
			return Context{Kind: KindOrderBy, VisibleTables: tablesFromText(source), Qualifier: qualifier}
		}},
		{"GROUP BY", func() Context {
			return Context{Kind: KindGroupBy, VisibleTables: tablesFromText(source), Qualifier: qualifier}
		}},
		{"HAVING", func() Context {
			return Context{Kind: KindHaving, VisibleTables: tablesFromText(source), Qualifier: qualifier}
		}},
		{"LIMIT", func() Context { return Context{Kind: KindLimit} }},
		{"OFFSET", func() Context { return Context{Kind: KindLimit} }},
		{"USING", func() Context { return joinFromText(source, qualifier, true) }},
		{"ON", func() Context { return joinFromText(source, qualifier, false) }},
		{"WHERE", func() Context {
			return Context{Kind: KindWhereClause, VisibleTables: tablesFromText(source), Qualifier: qualifier}
		}},
		{"JOIN", func() Context { return Context{Kind: KindFromClause, ExcludeTables: tablesFromText(source)} }},
		{"FROM", func() Context { return Context{Kind: KindFromClause, ExcludeTables: nil} }},
		{"SELECT", func() Context {
			return Context{Kind: KindSelectProjection, VisibleTables: tablesFromText(source), Qualifier: qualifier}
		}},
		{"INSERT", func() Context { return Context{Kind: KindKeywords, Statement: "INSERT"} }},
		{"UPDATE", func() Context { return Context{Kind: KindKeywords, Statement: "UPDATE"} }},
		{"DELETE", func() Context { return Context{Kind: KindKeywords, Statement: "DELETE"} }},
		{"CREATE", func() Context { return Context{Kind: KindKeywords, Statement: "CREATE"} }},
		{"ALTER", func() Context { return Context{Kind: KindKeywords, Statement: "ALTER"} }},
		{"DROP", func() Context { return Context{Kind: KindKeywords, Statement: "DROP"} }},
	}

	bestIdx, bestRule := -1, -1
	for i, r := range rules {
		idx := lastKeywordIndex(upper, r.keyword)
		if idx > bestIdx {
			bestIdx = idx
			bestRule = i
		}
	}
	if bestRule >= 0 {
		return rules[bestRule].make()
	}
	return Context{Kind: KindUnknown}
}

// joinFromText builds a JoinCondition from text: the right table is
// the last table, the left the one before it.
func joinFromText(source string, qualifier string, hasUsing bool) Context {
	tables := tablesFromText(source)
	ctx := Context{Kind: KindJoinCondition, Qualifier: qualifier, HasUsing: hasUsing}
	if len(tables) > 0 {
		ctx.RightTable = tables[len(tables)-1]
	}
	if len(tables) > 1 {
		ctx.LeftTable = tables[len(tables)-2]
	}
	return ctx
}

// lastKeywordIndex finds the rightmost word-boundary occurrence of kw.
func lastKeywordIndex(upper, kw string) int {
	for i := strings.LastIndex(upper, kw); i >= 0; i = strings.LastIndex(upper[:i], kw) {
		if isWordBoundary(upper, i, len(kw)) {
			return i
		}
	}
	return -1
}

// keywordIndex finds the leftmost word-boundary occurrence of kw.
func keywordIndex(upper, kw string) int {
	from := 0
	for {
		i := strings.Index(upper[from:], kw)
		if i < 0 {
			return -1
		}
		i += from
		if isWordBoundary(upper, i, len(kw)) {
			return i
		}
		from = i + 1
	}
}

func isWordBoundary(s string, idx, length int) bool {
	if idx > 0 && isWordByte(s[idx-1]) {
		return false
	}
	end := idx + length
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}
