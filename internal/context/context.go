// Package context classifies the cursor position in a SQL buffer into
// a completion context: which clause the user is typing in, which
// tables are visible there, and any table qualifier before the cursor.
//
// Importers alias the package (conventionally sqlcontext) to avoid
// clashing with the standard library.
package context

// Kind names the grammatical position of the cursor.
type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindSelectProjection Kind = "select_projection"
	KindFromClause       Kind = "from_clause"
	KindWhereClause      Kind = "where_clause"
	KindJoinCondition    Kind = "join_condition"
	KindGroupBy          Kind = "group_by"
	KindOrderBy          Kind = "order_by"
	KindHaving           Kind = "having"
	KindJoinType         Kind = "join_type"
	KindLimit            Kind = "limit"
	// KindKeywords covers positions where only keywords make sense:
	// statement start, after UNION, after INSERT, and so on.
	KindKeywords Kind = "keywords"
)

// Context is the classifier's verdict for one cursor position.
type Context struct {
	Kind Kind

	// VisibleTables lists the display names (alias if present, else
	// table name) visible at the cursor, for column contexts.
	VisibleTables []string

	// Qualifier is the identifier before a trailing dot ("u" for
	// "u.|"), or empty.
	Qualifier string

	// LeftTable and RightTable are set for KindJoinCondition.
	LeftTable  string
	RightTable string

	// HasUsing reports that the join carries a USING clause, which
	// lifts the qualifier-forcing rule on its columns.
	HasUsing bool

	// ExcludeTables lists tables already referenced in the FROM
	// clause, for KindFromClause.
	ExcludeTables []string

	// Statement is the statement keyword driving KindKeywords
	// ("INSERT", "UNION", ...), or empty at statement start.
	Statement string
}

// IsColumnContext reports whether the context completes columns.
func (c Context) IsColumnContext() bool {
	switch c.Kind {
	case KindSelectProjection, KindWhereClause, KindJoinCondition,
		KindGroupBy, KindOrderBy, KindHaving:
		return true
	}
	return false
}
