// Package parser orchestrates parsing: it resolves the dialect for a
// buffer, decides between full and incremental parses, and wraps the
// grammar output with parse metadata.
package parser

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/grammar"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Languages resolves a dialect to its grammar handle.
type Languages interface {
	LanguageFor(ctx context.Context, dialect metadata.Dialect) (grammar.Language, error)
}

// Change is one LSP content change. A nil Range replaces the whole
// document.
type Change struct {
	Range *cst.Range
	Text  string
}

// Outcome classifies a parse.
type Outcome int

const (
	// OutcomeSuccess is a clean tree.
	OutcomeSuccess Outcome = iota
	// OutcomePartial is a tree carrying ERROR or MISSING nodes; it is
	// still usable for every downstream feature.
	OutcomePartial
)

// SyntaxError is one ERROR node's location, extracted for logging and
// the ParseResult surface.
type SyntaxError struct {
	Line     int
	Column   int
	Message  string
	NodeKind string
}

// Result is a completed parse with its metadata.
type Result struct {
	Outcome  Outcome
	Tree     *cst.Tree
	Duration time.Duration
	Errors   []SyntaxError
}

// Parser chooses dialects and drives the grammar handles. An engine
// override, when set, wins over every per-buffer language id.
type Parser struct {
	languages Languages
	override  metadata.Dialect
	logger    *zap.Logger
}

// New creates a parser over the grammar binding.
func New(languages Languages, logger *zap.Logger) *Parser {
	return &Parser{
		languages: languages,
		logger:    logger.With(zap.String("component", "parser")),
	}
}

// SetOverride pins every buffer to one dialect. An empty dialect
// clears the override.
func (p *Parser) SetOverride(dialect metadata.Dialect) {
	p.override = dialect
}

// ResolveDialect picks the dialect for a buffer: engine override
// first, then the buffer's language id, then mysql.
func (p *Parser) ResolveDialect(languageID string) metadata.Dialect {
	if p.override != "" {
		return p.override
	}
	if d, ok := metadata.ParseDialect(languageID); ok {
		return d
	}
	return metadata.DialectMySQL
}

// Parse runs a full parse of text.
func (p *Parser) Parse(ctx context.Context, dialect metadata.Dialect, text string) (*Result, error) {
	return p.run(ctx, dialect, text, nil)
}

// Reparse parses the buffer after a change notification. A single
// ranged change is translated into an InputEdit against the old text
// so the grammar can reuse oldTree; whole-document replacements and
// multi-change notifications fall back to a full parse.
func (p *Parser) Reparse(ctx context.Context, dialect metadata.Dialect, oldText string, oldTree *cst.Tree, changes []Change) (string, *Result, error) {
	newText := ApplyChanges(oldText, changes)

	var edit *cst.InputEdit
	if oldTree != nil && len(changes) == 1 && changes[0].Range != nil {
		e := editFor(oldText, changes[0])
		edit = &e
	}

	result, err := p.run(ctx, dialect, newText, edit)
	return newText, result, err
}

func (p *Parser) run(ctx context.Context, dialect metadata.Dialect, text string, edit *cst.InputEdit) (*Result, error) {
	lang, err := p.languages.LanguageFor(ctx, dialect)
	if err != nil {
		return nil, err
	}
	if lang == nil {
		return nil, &UnsupportedDialectError{Dialect: dialect}
	}

	start := time.Now()
	tree, err := lang.Parse(ctx, text, edit)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	result := &Result{
		Outcome:  OutcomeSuccess,
		Tree:     tree,
		Duration: duration,
	}
	if tree != nil && tree.HasErrors() {
		result.Outcome = OutcomePartial
		result.Errors = extractErrors(tree.Root(), text)
	}

	p.logger.Debug("Parse completed",
		zap.String("dialect", dialect.String()),
		zap.Duration("duration", duration),
		zap.Int("error_count", len(result.Errors)),
		zap.Bool("incremental", edit != nil),
	)
	return result, nil
}

// ApplyChanges splices LSP content changes into text, in order. A
// change with no range replaces the whole document.
func ApplyChanges(text string, changes []Change) string {
	for _, ch := range changes {
		if ch.Range == nil {
			text = ch.Text
			continue
		}
		start := cst.PositionToByte(text, ch.Range.Start)
		end := cst.PositionToByte(text, ch.Range.End)
		if end < start {
			start, end = end, start
		}
		text = text[:start] + ch.Text + text[end:]
	}
	return text
}

// editFor translates one ranged change against the old text into the
// byte and point coordinates an incremental reparse needs.
func editFor(oldText string, ch Change) cst.InputEdit {
	startByte := cst.PositionToByte(oldText, ch.Range.Start)
	oldEndByte := cst.PositionToByte(oldText, ch.Range.End)

	newEndByte := startByte + len(ch.Text)
	newText := oldText[:startByte] + ch.Text + oldText[oldEndByte:]

	return cst.InputEdit{
		StartByte:   startByte,
		OldEndByte:  oldEndByte,
		NewEndByte:  newEndByte,
		StartPoint:  cst.ByteToPosition(oldText, startByte),
		OldEndPoint: cst.ByteToPosition(oldText, oldEndByte),
		NewEndPoint: cst.ByteToPosition(newText, newEndByte),
	}
}

// extractErrors walks the tree and records one entry per ERROR or
// MISSING node.
func extractErrors(root *cst.Node, text string) []SyntaxError {
	var errs []SyntaxError
	cst.Walk(root, func(n *cst.Node) bool {
		if !n.IsError() && !n.IsMissing() {
			return true
		}
		pos := cst.ByteToPosition(text, n.StartByte())
		msg := "syntax error"
		if n.IsMissing() {
			msg = "missing " + n.Kind()
		} else if snippet := strings.TrimSpace(n.Text(text)); snippet != "" && len(snippet) <= 30 {
			msg = "syntax error near '" + snippet + "'"
		}
		errs = append(errs, SyntaxError{
			Line:     pos.Line,
			Column:   pos.Character,
			Message:  msg,
			NodeKind: n.Kind(),
		})
		return false
	})
	return errs
}
