// Package keywords provides context-indexed SQL keyword sets with
// per-dialect overrides, used by the completion engine to offer the
// right keywords for the cursor's grammatical context.
package keywords

import (
	"strings"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Keyword is one SQL keyword together with its documentation and sort
// priority (lower sorts earlier within the keyword tier).
type Keyword struct {
	Label       string
	Description string
	Priority    int
}

// Context names the grammatical positions keywords are indexed by.
type Context string

const (
	ContextStatementStart Context = "statement_start"
	ContextSelectClause   Context = "select_clause"
	ContextAfterFrom      Context = "after_from"
	ContextAfterWhere     Context = "after_where"
	ContextAfterJoin      Context = "after_join"
	ContextAfterGroupBy   Context = "after_group_by"
	ContextAfterOrderBy   Context = "after_order_by"
	ContextJoinType       Context = "join_type"
	ContextExpression     Context = "expression"
	ContextCreate         Context = "create"
	ContextAlter          Context = "alter"
	ContextDrop           Context = "drop"
	ContextInsert         Context = "insert"
	ContextUpdate         Context = "update"
	ContextDelete         Context = "delete"
	ContextUnion          Context = "union"
	ContextSortDirection  Context = "sort_direction"
	ContextHaving         Context = "having"
	ContextLimit          Context = "limit"
)

// Provider hands out keyword sets for a dialect.
type Provider struct {
	dialect metadata.Dialect
}

// NewProvider creates a provider for the given dialect.
func NewProvider(dialect metadata.Dialect) *Provider {
	return &Provider{dialect: dialect}
}

func kw(label, description string, priority int) Keyword {
	return Keyword{Label: strings.ToUpper(label), Description: description, Priority: priority}
}

// For returns the keyword set for a context. Unknown contexts return
// an empty set.
func (p *Provider) For(ctx Context) []Keyword {
	switch ctx {
	case ContextStatementStart:
		return p.statementKeywords()
	case ContextSelectClause:
		return p.selectClauseKeywords()
	case ContextAfterFrom:
		return exclude(p.selectClauseKeywords(), "FROM")
	case ContextAfterWhere:
		return []Keyword{
			kw("GROUP BY", "Group rows by values", 1),
			kw("ORDER BY", "Sort result rows", 2),
			kw("LIMIT", "Limit number of rows", 3),
			kw("OFFSET", "Skip rows", 4),
			kw("HAVING", "Filter groups", 5),
		}
	case ContextAfterJoin:
		return []Keyword{
			kw("ON", "Join condition", 1),
			kw("USING", "Join using columns", 2),
		}
	case ContextAfterGroupBy:
		return []Keyword{
			kw("HAVING", "Filter groups", 1),
			kw("ORDER BY", "Sort result rows", 2),
			kw("LIMIT", "Limit number of rows", 3),
		}
	case ContextAfterOrderBy:
		return []Keyword{
			kw("LIMIT", "Limit number of rows", 1),
			kw("OFFSET", "Skip rows", 2),
		}
	case ContextJoinType:
		return []Keyword{
			kw("INNER", "Inner join", 1),
			kw("LEFT", "Left outer join", 2),
			kw("RIGHT", "Right outer join", 3),
			kw("FULL", "Full outer join", 4),
			kw("CROSS", "Cross join", 5),
			kw("NATURAL", "Natural join", 6),
			kw("LATERAL", "Lateral join", 7),
		}
	case ContextExpression:
		return p.expressionKeywords()
	case ContextCreate:
		return []Keyword{
			kw("TABLE", "Create table", 1),
			kw("INDEX", "Create index", 2),
			kw("VIEW", "Create view", 3),
			kw("DATABASE", "Create database", 4),
			kw("SCHEMA", "Create schema", 5),
			kw("FUNCTION", "Create function", 6),
			kw("PROCEDURE", "Create procedure", 7),
			kw("TRIGGER", "Create trigger", 8),
			kw("TEMPORARY", "Temporary object", 9),
			kw("OR REPLACE", "Replace if exists", 10),
		}
	case ContextAlter:
		return []Keyword{
			kw("TABLE", "Alter table", 1),
			kw("VIEW", "Alter view", 2),
			kw("DATABASE", "Alter database", 3),
			kw("SCHEMA", "Alter schema", 4),
			kw("FUNCTION", "Alter function", 5),
			kw("PROCEDURE", "Alter procedure", 6),
			kw("TRIGGER", "Alter trigger", 7),
			kw("INDEX", "Alter index", 8),
		}
	case ContextDrop:
		return []Keyword{
			kw("TABLE", "Drop table", 1),
			kw("INDEX", "Drop index", 2),
			kw("VIEW", "Drop view", 3),
			kw("DATABASE", "Drop database", 4),
			kw("SCHEMA", "Drop schema", 5),
			kw("FUNCTION", "Drop function", 6),
			kw("PROCEDURE", "Drop procedure", 7),
			kw("TRIGGER", "Drop trigger", 8),
			kw("TEMPORARY", "Temporary object", 9),
			kw("IF EXISTS", "Drop if exists", 10),
		}
	case ContextInsert:
		out := []Keyword{
			kw("INTO", "Insert into table", 1),
			kw("VALUES", "Insert values", 2),
		}
		if p.dialect.Family() == metadata.DialectMySQL {
			out = append(out,
				kw("SET", "Set column values", 3),
				kw("ON DUPLICATE KEY UPDATE", "Upsert on duplicate key", 4),
			)
		} else {
			out = append(out, kw("RETURNING", "Return inserted rows", 3))
		}
		return out
	case ContextUpdate:
		out := []Keyword{
			kw("SET", "Set column values", 1),
			kw("WHERE", "Filter rows to update", 2),
		}
		if p.dialect.Family() == metadata.DialectPostgreSQL {
			out = append(out,
				kw("FROM", "Additional tables", 3),
				kw("RETURNING", "Return updated rows", 4),
			)
		}
		return out
	case ContextDelete:
		out := []Keyword{
			kw("FROM", "Delete from table", 1),
			kw("WHERE", "Filter rows to delete", 2),
		}
		if p.dialect.Family() == metadata.DialectPostgreSQL {
			out = append(out, kw("RETURNING", "Return deleted rows", 3))
		}
		return out
	case ContextUnion:
		return []Keyword{
			kw("ALL", "Include duplicates", 1),
			kw("SELECT", "Select statement", 2),
		}
	case ContextSortDirection:
		return []Keyword{
			kw("ASC", "Ascending order", 1),
			kw("DESC", "Descending order", 2),
		}
	case ContextHaving:
		return []Keyword{kw("HAVING", "Filter groups", 1)}
	case ContextLimit:
		return []Keyword{
			kw("1", "Limit to 1 row", 1),
			kw("10", "Limit to 10 rows", 2),
			kw("100", "Limit to 100 rows", 3),
			kw("1000", "Limit to 1000 rows", 4),
			kw("OFFSET", "Skip rows before limiting", 5),
		}
	default:
		return nil
	}
}

func (p *Provider) statementKeywords() []Keyword {
	return []Keyword{
		kw("SELECT", "Retrieve data from tables", 1),
		kw("INSERT", "Insert new rows into a table", 2),
		kw("UPDATE", "Modify existing rows in a table", 3),
		kw("DELETE", "Delete rows from a table", 4),
		kw("CREATE", "Create database objects", 5),
		kw("ALTER", "Modify database objects", 6),
		kw("DROP", "Remove database objects", 7),
		kw("TRUNCATE", "Remove all rows from a table", 8),
		kw("WITH", "Common Table Expression (CTE)", 9),
	}
}

func (p *Provider) selectClauseKeywords() []Keyword {
	out := []Keyword{
		kw("CASE", "Conditional expression", 1),
		kw("FROM", "Specify tables to query", 2),
		kw("WHERE", "Filter rows", 3),
		kw("GROUP BY", "Group rows by values", 4),
		kw("HAVING", "Filter groups", 5),
		kw("ORDER BY", "Sort result rows", 6),
		kw("LIMIT", "Limit number of rows", 7),
		kw("OFFSET", "Skip rows before limiting", 8),
		kw("JOIN", "Join with another table", 9),
		kw("INNER JOIN", "Inner join with another table", 10),
		kw("LEFT JOIN", "Left outer join", 11),
		kw("RIGHT JOIN", "Right outer join", 12),
		kw("FULL JOIN", "Full outer join", 13),
		kw("CROSS JOIN", "Cross join", 14),
		kw("UNION", "Combine result sets", 15),
		kw("UNION ALL", "Combine result sets with duplicates", 16),
		kw("INTERSECT", "Intersection of result sets", 17),
		kw("EXCEPT", "Difference of result sets", 18),
		kw("DISTINCT", "Remove duplicate rows", 19),
		kw("ALL", "Include all rows (default)", 20),
		kw("AS", "Alias for columns or tables", 21),
		kw("INTO", "Select into variables or table", 22),
	}

	switch p.dialect.Family() {
	case metadata.DialectPostgreSQL:
		out = append(out,
			kw("FETCH", "Fetch specific rows", 23),
			kw("FOR UPDATE", "Lock selected rows", 24),
		)
	case metadata.DialectMySQL:
		out = append(out,
			kw("STRAIGHT_JOIN", "Force join order", 23),
			kw("FOR UPDATE", "Lock selected rows", 24),
			kw("LOCK IN SHARE MODE", "Lock rows in share mode", 25),
		)
	}
	return out
}

func (p *Provider) expressionKeywords() []Keyword {
	return []Keyword{
		kw("AND", "Logical AND", 1),
		kw("OR", "Logical OR", 2),
		kw("NOT", "Logical NOT", 3),
		kw("IN", "Value in list", 4),
		kw("EXISTS", "Subquery exists", 5),
		kw("BETWEEN", "Value between range", 6),
		kw("LIKE", "Pattern matching", 7),
		kw("IS NULL", "Check if value is NULL", 8),
		kw("IS NOT NULL", "Check if value is not NULL", 9),
		kw("CASE", "Conditional expression", 10),
		kw("WHEN", "CASE WHEN condition", 11),
		kw("THEN", "CASE THEN result", 12),
		kw("ELSE", "CASE ELSE default", 13),
		kw("END", "END CASE expression", 14),
		kw("NULL", "NULL value", 15),
		kw("TRUE", "Boolean TRUE", 16),
		kw("FALSE", "Boolean FALSE", 17),
		kw("CAST", "Cast to type", 18),
		kw("COALESCE", "First non-NULL value", 19),
		kw("NULLIF", "NULL if equal", 20),
	}
}

func exclude(set []Keyword, labels ...string) []Keyword {
	drop := make(map[string]bool, len(labels))
	for _, l := range labels {
		drop[strings.ToUpper(l)] = true
	}
	out := make([]Keyword, 0, len(set))
	for _, k := range set {
		if !drop[k.Label] {
			out = append(out, k)
		}
	}
	return out
}
