// Package catalog defines the contract through which the analysis
// pipeline reads database schema metadata. Implementations live in the
// static, mysql and postgres subpackages; the server holds one shared
// Catalog handle per connection and implementations manage their own
// pooling and thread safety.
package catalog

import (
	"context"
	"strings"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Catalog exposes table, column and function metadata.
//
// Contract:
//   - ListTables returns every table visible to the connection, in
//     stable (schema, name) order.
//   - GetColumns on a missing table fails with *NotFoundError, never
//     with an empty list. Table matching is case-insensitive.
//   - ListFunctions returns the functions available for a dialect, in
//     stable name order.
type Catalog interface {
	ListTables(ctx context.Context) ([]metadata.TableMetadata, error)
	GetColumns(ctx context.Context, tableName string) ([]metadata.ColumnMetadata, error)
	ListFunctions(ctx context.Context, dialect metadata.Dialect) ([]metadata.FunctionMetadata, error)
}

// NormalizeIdentifier strips MySQL backtick or PostgreSQL double-quote
// quoting and lowercases the identifier for comparison. Quoted
// identifiers preserve case in SQL, but catalog matching is ASCII
// case-insensitive by contract.
func NormalizeIdentifier(ident string) string {
	ident = strings.TrimSpace(ident)
	if len(ident) >= 2 {
		if (ident[0] == '`' && ident[len(ident)-1] == '`') ||
			(ident[0] == '"' && ident[len(ident)-1] == '"') {
			ident = ident[1 : len(ident)-1]
		}
	}
	return strings.ToLower(ident)
}

// IdentifiersEqual compares two identifiers after normalization.
func IdentifiersEqual(a, b string) bool {
	return NormalizeIdentifier(a) == NormalizeIdentifier(b)
}
