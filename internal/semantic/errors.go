package semantic

import (
	"fmt"
	"strings"
)

// DuplicateAliasError reports two tables registered under the same
// display name in one scope.
type DuplicateAliasError struct {
	Name string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("duplicate table alias: %s", e.Name)
}

// TableNotFoundError reports a table name or alias that resolved to
// nothing in the scope chain.
type TableNotFoundError struct {
	Name string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found: %s", e.Name)
}

// ColumnNotFoundError reports a column invisible from the scope chain.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found: %s", e.Name)
}

// AmbiguousColumnError reports a column visible through more than one
// table.
type AmbiguousColumnError struct {
	Name   string
	Tables []string
}

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("ambiguous column %s (tables: %s)", e.Name, strings.Join(e.Tables, ", "))
}

// InvalidScopeError reports a scope ID outside the manager.
type InvalidScopeError struct {
	ID int
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("invalid scope id: %d", e.ID)
}

// NoFromClauseError reports a SELECT without a FROM clause, which
// leaves nothing to build a scope from.
type NoFromClauseError struct{}

func (e *NoFromClauseError) Error() string {
	return "select statement has no FROM clause"
}
