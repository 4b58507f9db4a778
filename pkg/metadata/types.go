package metadata

// Schema metadata shared between the catalog implementations, the
// analysis pipeline and Wasm add-ons. Everything here is JSON
// serializable; the add-on `metadata` export exchanges these types
// over the module boundary.

// TableType classifies a table-like object.
type TableType string

const (
	TableTypeTable            TableType = "table"
	TableTypeView             TableType = "view"
	TableTypeMaterializedView TableType = "materialized_view"
	TableTypeTemporary        TableType = "temporary"
	TableTypeSystem           TableType = "system"
)

// TableReference points at a column in another table (foreign keys).
type TableReference struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ColumnMetadata describes one column of a table.
type ColumnMetadata struct {
	Name         string          `json:"name"`
	DataType     DataType        `json:"data_type"`
	Nullable     bool            `json:"nullable"`
	DefaultValue string          `json:"default_value,omitempty"`
	Comment      string          `json:"comment,omitempty"`
	IsPrimaryKey bool            `json:"is_primary_key"`
	IsForeignKey bool            `json:"is_foreign_key"`
	References   *TableReference `json:"references,omitempty"`
}

// NewColumn creates column metadata with the required fields set.
func NewColumn(name string, dataType DataType) ColumnMetadata {
	return ColumnMetadata{Name: name, DataType: dataType}
}

// WithNullable marks the column nullable.
func (c ColumnMetadata) WithNullable() ColumnMetadata {
	c.Nullable = true
	return c
}

// WithDefault sets the default-value expression.
func (c ColumnMetadata) WithDefault(expr string) ColumnMetadata {
	c.DefaultValue = expr
	return c
}

// WithComment sets the column comment.
func (c ColumnMetadata) WithComment(comment string) ColumnMetadata {
	c.Comment = comment
	return c
}

// WithPrimaryKey marks the column as part of the primary key.
func (c ColumnMetadata) WithPrimaryKey() ColumnMetadata {
	c.IsPrimaryKey = true
	return c
}

// WithForeignKey marks the column as a foreign key to table.column.
func (c ColumnMetadata) WithForeignKey(table, column string) ColumnMetadata {
	c.IsForeignKey = true
	c.References = &TableReference{Table: table, Column: column}
	return c
}

// TableMetadata describes a table, view or similar relation.
type TableMetadata struct {
	Name             string           `json:"name"`
	Schema           string           `json:"schema"`
	Columns          []ColumnMetadata `json:"columns"`
	RowCountEstimate int64            `json:"row_count_estimate,omitempty"`
	Comment          string           `json:"comment,omitempty"`
	TableType        TableType        `json:"table_type"`
}

// NewTable creates table metadata for the given schema-qualified name.
func NewTable(name, schema string) TableMetadata {
	return TableMetadata{Name: name, Schema: schema, TableType: TableTypeTable}
}

// WithColumns sets the column list.
func (t TableMetadata) WithColumns(columns ...ColumnMetadata) TableMetadata {
	t.Columns = columns
	return t
}

// WithRowCount sets the row-count estimate.
func (t TableMetadata) WithRowCount(count int64) TableMetadata {
	t.RowCountEstimate = count
	return t
}

// WithComment sets the table comment.
func (t TableMetadata) WithComment(comment string) TableMetadata {
	t.Comment = comment
	return t
}

// WithType sets the table type.
func (t TableMetadata) WithType(tt TableType) TableMetadata {
	t.TableType = tt
	return t
}

// Column returns the column with the given name, or false.
func (t TableMetadata) Column(name string) (ColumnMetadata, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnMetadata{}, false
}

// PrimaryKeys returns the primary-key columns in declaration order.
func (t TableMetadata) PrimaryKeys() []ColumnMetadata {
	var pks []ColumnMetadata
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}
