// Package semantic builds table scopes from parsed SQL and resolves
// table and column references against them.
package semantic

import (
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// TableSymbol is a table visible in a query scope, either by its real
// name or through an alias ("u" in "FROM users u").
type TableSymbol struct {
	Name    string
	Alias   string
	Columns []ColumnSymbol
	// IsCTE marks a symbol registered by a WITH clause rather than a
	// catalog table.
	IsCTE bool
}

// NewTableSymbol creates a symbol with no alias and no columns.
func NewTableSymbol(name string) TableSymbol {
	return TableSymbol{Name: name}
}

// WithAlias returns a copy carrying the alias.
func (t TableSymbol) WithAlias(alias string) TableSymbol {
	t.Alias = alias
	return t
}

// WithColumns returns a copy carrying the column set.
func (t TableSymbol) WithColumns(columns []ColumnSymbol) TableSymbol {
	t.Columns = columns
	return t
}

// Matches reports whether name refers to this table by real name or
// alias. Matching is case-insensitive after quote stripping.
func (t TableSymbol) Matches(name string) bool {
	if catalog.IdentifiersEqual(t.Name, name) {
		return true
	}
	return t.Alias != "" && catalog.IdentifiersEqual(t.Alias, name)
}

// DisplayName is the alias when set, the table name otherwise.
func (t TableSymbol) DisplayName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// FindColumn returns the column with the given name, if any.
func (t TableSymbol) FindColumn(name string) (ColumnSymbol, bool) {
	for _, c := range t.Columns {
		if catalog.IdentifiersEqual(c.Name, name) {
			return c, true
		}
	}
	return ColumnSymbol{}, false
}

// ColumnSymbol is a column visible through a table symbol.
type ColumnSymbol struct {
	Name         string
	DataType     metadata.DataType
	TableName    string
	IsPrimaryKey bool
	IsForeignKey bool
}

// NewColumnSymbol creates a column symbol owned by tableName.
func NewColumnSymbol(name string, dataType metadata.DataType, tableName string) ColumnSymbol {
	return ColumnSymbol{Name: name, DataType: dataType, TableName: tableName}
}

// ColumnsFromMetadata converts catalog column metadata into symbols
// owned by tableName.
func ColumnsFromMetadata(tableName string, cols []metadata.ColumnMetadata) []ColumnSymbol {
	out := make([]ColumnSymbol, 0, len(cols))
	for _, c := range cols {
		out = append(out, ColumnSymbol{
			Name:         c.Name,
			DataType:     c.DataType,
			TableName:    tableName,
			IsPrimaryKey: c.IsPrimaryKey,
			IsForeignKey: c.IsForeignKey,
		})
	}
	return out
}
