package catalog

import (
	"context"
	"encoding/json"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// SchemaExport is the JSON payload handed to add-ons that request
// schema introspection through the get_schema host function.
type SchemaExport struct {
	Schema string                   `json:"schema,omitempty"`
	Tables []metadata.TableMetadata `json:"tables"`
}

// Exporter serializes catalog metadata for consumers outside the
// process, currently the wasm host functions.
type Exporter struct {
	cat Catalog
}

// NewExporter creates an exporter over the catalog.
func NewExporter(cat Catalog) *Exporter {
	return &Exporter{cat: cat}
}

// Schema returns the JSON description of the named schema, columns
// included. An empty name exports every visible schema.
func (e *Exporter) Schema(ctx context.Context, name string) ([]byte, error) {
	tables, err := e.cat.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	export := SchemaExport{Schema: name, Tables: []metadata.TableMetadata{}}
	for _, table := range tables {
		if name != "" && !IdentifiersEqual(table.Schema, name) {
			continue
		}
		if len(table.Columns) == 0 {
			cols, err := e.cat.GetColumns(ctx, table.Name)
			if err == nil {
				table.Columns = cols
			}
		}
		export.Tables = append(export.Tables, table)
	}
	return json.Marshal(export)
}
