package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst/csttest"
	"github.com/woxQAQ/unified-sql-lsp/internal/grammar"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// fakeLanguage parses every source into a one-table SELECT tree and
// records how it was invoked.
type fakeLanguage struct {
	dialect  metadata.Dialect
	lastEdit *cst.InputEdit
	source   string
	calls    int
	broken   bool
}

func (f *fakeLanguage) Dialect() metadata.Dialect { return f.dialect }

func (f *fakeLanguage) Parse(ctx context.Context, source string, edit *cst.InputEdit) (*cst.Tree, error) {
	f.calls++
	f.source = source
	f.lastEdit = edit
	if f.broken {
		return csttest.NewNode(cst.KindSelectStatement, 0, len(source)).Add(
			csttest.Error(0, len(source)),
		).Build(), nil
	}
	stmt := csttest.SelectStatement(source)
	if name := tableAfterFrom(source); name != "" {
		stmt.Add(csttest.FromClause(source, csttest.TableRef{Name: name}))
	}
	return stmt.Build(), nil
}

// tableAfterFrom returns the word following "FROM " in source, or ""
// when the source has no FROM clause, so the fake tree never depends
// on a hardcoded table name.
func tableAfterFrom(source string) string {
	_, after, ok := strings.Cut(source, "FROM ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(after, " ")
	return name
}

type fakeLanguages struct {
	langs map[metadata.Dialect]*fakeLanguage
}

func (f *fakeLanguages) LanguageFor(ctx context.Context, dialect metadata.Dialect) (grammar.Language, error) {
	lang, ok := f.langs[dialect.Family()]
	if !ok {
		return nil, nil
	}
	return lang, nil
}

func newTestParser(langs ...*fakeLanguage) (*Parser, *fakeLanguages) {
	fl := &fakeLanguages{langs: make(map[metadata.Dialect]*fakeLanguage)}
	for _, l := range langs {
		fl.langs[l.dialect] = l
	}
	return New(fl, zap.NewNop()), fl
}

func TestResolveDialect(t *testing.T) {
	p, _ := newTestParser()

	tests := []struct {
		languageID string
		want       metadata.Dialect
	}{
		{"mysql", metadata.DialectMySQL},
		{"postgresql", metadata.DialectPostgreSQL},
		{"postgres", metadata.DialectPostgreSQL},
		{"sql", metadata.DialectMySQL},
		{"", metadata.DialectMySQL},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.ResolveDialect(tt.languageID), "languageID %q", tt.languageID)
	}
}

func TestResolveDialectOverrideWins(t *testing.T) {
	p, _ := newTestParser()
	p.SetOverride(metadata.DialectPostgreSQL)

	assert.Equal(t, metadata.DialectPostgreSQL, p.ResolveDialect("mysql"))

	p.SetOverride("")
	assert.Equal(t, metadata.DialectMySQL, p.ResolveDialect("mysql"))
}

func TestParseSuccess(t *testing.T) {
	lang := &fakeLanguage{dialect: metadata.DialectMySQL}
	p, _ := newTestParser(lang)

	result, err := p.Parse(context.Background(), metadata.DialectMySQL, "SELECT * FROM users")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.NotNil(t, result.Tree)
	assert.Empty(t, result.Errors)
	assert.GreaterOrEqual(t, result.Duration.Nanoseconds(), int64(0))
	assert.Nil(t, lang.lastEdit, "full parse carries no edit")
}

func TestParsePartialExtractsErrors(t *testing.T) {
	lang := &fakeLanguage{dialect: metadata.DialectMySQL, broken: true}
	p, _ := newTestParser(lang)

	result, err := p.Parse(context.Background(), metadata.DialectMySQL, "SELECT FROM")
	require.NoError(t, err)

	assert.Equal(t, OutcomePartial, result.Outcome)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, cst.KindError, result.Errors[0].NodeKind)
	assert.Equal(t, 0, result.Errors[0].Line)
}

func TestParseUnsupportedDialect(t *testing.T) {
	p, _ := newTestParser()

	_, err := p.Parse(context.Background(), metadata.Dialect("oracle"), "SELECT 1")

	var unsupported *UnsupportedDialectError
	require.ErrorAs(t, err, &unsupported)
}

func TestReparseSingleRangedChangeIsIncremental(t *testing.T) {
	lang := &fakeLanguage{dialect: metadata.DialectMySQL}
	p, _ := newTestParser(lang)

	oldText := "SELECT * FROM users"
	oldTree := csttest.SelectStatement(oldText,
		csttest.FromClause(oldText, csttest.TableRef{Name: "users"}),
	).Build()

	// Replace "users" with "orders".
	start, end := csttest.Span(oldText, "users")
	change := Change{
		Range: &cst.Range{
			Start: cst.ByteToPosition(oldText, start),
			End:   cst.ByteToPosition(oldText, end),
		},
		Text: "orders",
	}

	newText, result, err := p.Reparse(context.Background(), metadata.DialectMySQL, oldText, oldTree, []Change{change})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM orders", newText)
	assert.Equal(t, newText, lang.source)
	require.NotNil(t, lang.lastEdit, "single ranged change must reparse incrementally")
	assert.Equal(t, start, lang.lastEdit.StartByte)
	assert.Equal(t, end, lang.lastEdit.OldEndByte)
	assert.Equal(t, start+len("orders"), lang.lastEdit.NewEndByte)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
}

func TestReparseWholeDocumentChangeIsFull(t *testing.T) {
	lang := &fakeLanguage{dialect: metadata.DialectMySQL}
	p, _ := newTestParser(lang)

	oldText := "SELECT 1"
	oldTree := csttest.SelectStatement(oldText).Build()

	newText, _, err := p.Reparse(context.Background(), metadata.DialectMySQL, oldText, oldTree,
		[]Change{{Text: "SELECT 2"}})
	require.NoError(t, err)

	assert.Equal(t, "SELECT 2", newText)
	assert.Nil(t, lang.lastEdit)
}

func TestReparseMultipleChangesFallBackToFull(t *testing.T) {
	lang := &fakeLanguage{dialect: metadata.DialectMySQL}
	p, _ := newTestParser(lang)

	oldText := "SELECT a, b"
	oldTree := csttest.SelectStatement(oldText).Build()

	aStart, aEnd := csttest.Span(oldText, "a,")
	bStart, bEnd := csttest.Span(oldText, "b")
	changes := []Change{
		{Range: &cst.Range{Start: cst.ByteToPosition(oldText, aStart), End: cst.ByteToPosition(oldText, aEnd)}, Text: "x,"},
		{Range: &cst.Range{Start: cst.ByteToPosition(oldText, bStart), End: cst.ByteToPosition(oldText, bEnd)}, Text: "y"},
	}

	newText, _, err := p.Reparse(context.Background(), metadata.DialectMySQL, oldText, oldTree, changes)
	require.NoError(t, err)

	assert.Equal(t, "SELECT x, y", newText)
	assert.Nil(t, lang.lastEdit, "multi-change notifications force a full parse")
}

func TestReparseWithoutOldTreeIsFull(t *testing.T) {
	lang := &fakeLanguage{dialect: metadata.DialectMySQL}
	p, _ := newTestParser(lang)

	oldText := "SELECT 1"
	change := Change{
		Range: &cst.Range{Start: cst.Position{Line: 0, Character: 7}, End: cst.Position{Line: 0, Character: 8}},
		Text:  "2",
	}

	newText, _, err := p.Reparse(context.Background(), metadata.DialectMySQL, oldText, nil, []Change{change})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", newText)
	assert.Nil(t, lang.lastEdit)
}

func TestApplyChangesMultiByte(t *testing.T) {
	// The é is two bytes; character offsets still count it as one.
	text := "SELECT 'café' FROM users"
	start := cst.Position{Line: 0, Character: 8}
	end := cst.Position{Line: 0, Character: 12}

	got := ApplyChanges(text, []Change{{
		Range: &cst.Range{Start: start, End: end},
		Text:  "tea",
	}})
	assert.Equal(t, "SELECT 'tea' FROM users", got)
}

func TestApplyChangesAppliesInOrder(t *testing.T) {
	got := ApplyChanges("ab", []Change{
		{Range: &cst.Range{Start: cst.Position{Character: 1}, End: cst.Position{Character: 1}}, Text: "x"},
		{Range: &cst.Range{Start: cst.Position{Character: 3}, End: cst.Position{Character: 3}}, Text: "y"},
	})
	assert.Equal(t, "axby", got)
}
