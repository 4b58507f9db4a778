package grammar

import (
	"fmt"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// NoGrammarError occurs when no loaded add-on provides a grammar for
// the dialect.
type NoGrammarError struct {
	Dialect metadata.Dialect
	Err     error
}

func (e *NoGrammarError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no grammar available for dialect '%s': %v", e.Dialect, e.Err)
	}
	return fmt.Sprintf("no grammar available for dialect '%s'", e.Dialect)
}

func (e *NoGrammarError) Unwrap() error { return e.Err }

// ParseError occurs when the guest parser fails or returns a tree the
// host cannot decode.
type ParseError struct {
	Dialect metadata.Dialect
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("grammar parse failed for dialect '%s': %v", e.Dialect, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
