package parser

import (
	"fmt"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// UnsupportedDialectError occurs when no grammar exists for the
// resolved dialect. Features degrade to empty results; no diagnostic
// is published for it.
type UnsupportedDialectError struct {
	Dialect metadata.Dialect
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("dialect '%s' is not supported by any loaded grammar", e.Dialect)
}
