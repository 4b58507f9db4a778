package document

import (
	"fmt"

	"go.lsp.dev/uri"
)

// NotOpenError occurs when an operation targets a URI that was never
// opened or was already closed.
type NotOpenError struct {
	URI uri.URI
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("document '%s' is not open", e.URI)
}
