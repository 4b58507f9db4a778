package hover

import (
	"fmt"
	"strings"

	"github.com/woxQAQ/unified-sql-lsp/internal/semantic"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Markdown cards. Every card opens with a fenced sql block naming the
// hovered symbol, followed by one line of classification and any
// details worth a read.

func functionCard(f metadata.FunctionMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```sql\n%s\n```\n\n", f.Signature())
	if f.Description != "" {
		b.WriteString(f.Description)
	} else {
		b.WriteString("SQL function")
	}
	if f.Example != "" {
		fmt.Fprintf(&b, "\n\nExample: `%s`", f.Example)
	}
	return b.String()
}

func tableCard(t metadata.TableMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```sql\n%s.%s\n```\n\nTable", t.Schema, t.Name)
	if t.Comment != "" {
		fmt.Fprintf(&b, "\n\n%s", t.Comment)
	}
	return b.String()
}

func aliasCard(alias, tableName string) string {
	return fmt.Sprintf("```sql\n%s\n```\n\nTable alias for `%s`", alias, tableName)
}

func columnCard(col semantic.ColumnSymbol) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```sql\n%s\n```\n\nColumn type: %s", col.Name, col.DataType)
	if col.IsPrimaryKey {
		b.WriteString("\n\n**Primary Key**")
	}
	if col.IsForeignKey {
		b.WriteString("\n\n**Foreign Key**")
	}
	return b.String()
}
