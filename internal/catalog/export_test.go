package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

type fixtureCatalog struct {
	tables []metadata.TableMetadata
}

func (f *fixtureCatalog) ListTables(ctx context.Context) ([]metadata.TableMetadata, error) {
	return f.tables, nil
}

func (f *fixtureCatalog) GetColumns(ctx context.Context, tableName string) ([]metadata.ColumnMetadata, error) {
	for _, t := range f.tables {
		if IdentifiersEqual(t.Name, tableName) {
			return t.Columns, nil
		}
	}
	return nil, &NotFoundError{What: "table", Name: tableName}
}

func (f *fixtureCatalog) ListFunctions(ctx context.Context, dialect metadata.Dialect) ([]metadata.FunctionMetadata, error) {
	return nil, nil
}

func TestExporterSchemaFiltersBySchemaName(t *testing.T) {
	cat := &fixtureCatalog{tables: []metadata.TableMetadata{
		metadata.NewTable("events", "analytics").WithColumns(
			metadata.NewColumn("id", metadata.Simple(metadata.TypeInteger)).WithPrimaryKey(),
		),
		metadata.NewTable("users", "public").WithColumns(
			metadata.NewColumn("id", metadata.Simple(metadata.TypeInteger)).WithPrimaryKey(),
			metadata.NewColumn("name", metadata.Simple(metadata.TypeText)),
		),
	}}

	payload, err := NewExporter(cat).Schema(context.Background(), "public")
	require.NoError(t, err)

	var export SchemaExport
	require.NoError(t, json.Unmarshal(payload, &export))

	assert.Equal(t, "public", export.Schema)
	require.Len(t, export.Tables, 1)
	assert.Equal(t, "users", export.Tables[0].Name)
	assert.Len(t, export.Tables[0].Columns, 2)
}

func TestExporterSchemaEmptyNameExportsAll(t *testing.T) {
	cat := &fixtureCatalog{tables: []metadata.TableMetadata{
		metadata.NewTable("events", "analytics"),
		metadata.NewTable("users", "public"),
	}}

	payload, err := NewExporter(cat).Schema(context.Background(), "")
	require.NoError(t, err)

	var export SchemaExport
	require.NoError(t, json.Unmarshal(payload, &export))
	assert.Len(t, export.Tables, 2)
}
