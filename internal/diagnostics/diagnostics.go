// Package diagnostics produces syntax and semantic diagnostics for a
// parsed SQL buffer. The syntax pass reads ERROR nodes off the tree;
// the semantic pass validates table and column references against the
// catalog through the scope builder.
package diagnostics

// Source tags every diagnostic this server publishes.
const Source = "unified-sql-lsp"

// Code identifies the diagnostic category.
type Code string

const (
	CodeSyntax          Code = "SYNTAX-001"
	CodeUndefinedTable  Code = "SEMANTIC-001"
	CodeUndefinedColumn Code = "SEMANTIC-002"
	CodeAmbiguousColumn Code = "SEMANTIC-003"
)

// Severity mirrors the LSP severity scale.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Diagnostic is one finding, spanning bytes [StartByte, EndByte) of
// the source.
type Diagnostic struct {
	Message   string
	Severity  Severity
	Code      Code
	StartByte int
	EndByte   int
}
