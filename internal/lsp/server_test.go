package lsp_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/catalog/static"
	"github.com/woxQAQ/unified-sql-lsp/internal/config"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst/csttest"
	"github.com/woxQAQ/unified-sql-lsp/internal/grammar"
	"github.com/woxQAQ/unified-sql-lsp/internal/lsp"
	"github.com/woxQAQ/unified-sql-lsp/internal/parser"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// mockClient implements protocol.Client and records published
// diagnostics.
type mockClient struct {
	diagnostics []protocol.PublishDiagnosticsParams
}

func (m *mockClient) PublishDiagnostics(_ context.Context, params *protocol.PublishDiagnosticsParams) error {
	m.diagnostics = append(m.diagnostics, *params)
	return nil
}

func (m *mockClient) Progress(context.Context, *protocol.ProgressParams) error { return nil }
func (m *mockClient) WorkDoneProgressCreate(context.Context, *protocol.WorkDoneProgressCreateParams) error {
	return nil
}
func (m *mockClient) ShowMessage(context.Context, *protocol.ShowMessageParams) error { return nil }
func (m *mockClient) ShowMessageRequest(context.Context, *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	return nil, nil
}
func (m *mockClient) LogMessage(context.Context, *protocol.LogMessageParams) error { return nil }
func (m *mockClient) Telemetry(context.Context, interface{}) error                 { return nil }
func (m *mockClient) RegisterCapability(context.Context, *protocol.RegistrationParams) error {
	return nil
}
func (m *mockClient) UnregisterCapability(context.Context, *protocol.UnregistrationParams) error {
	return nil
}
func (m *mockClient) ApplyEdit(context.Context, *protocol.ApplyWorkspaceEditParams) (bool, error) {
	return false, nil
}
func (m *mockClient) Configuration(context.Context, *protocol.ConfigurationParams) ([]interface{}, error) {
	return nil, nil
}
func (m *mockClient) WorkspaceFolders(context.Context) ([]protocol.WorkspaceFolder, error) {
	return nil, nil
}

// fakeLanguage builds a SELECT tree from the text after FROM, so the
// pipeline runs end to end without a wasm grammar. A source containing
// "!!" parses into an ERROR tree.
type fakeLanguage struct {
	lastEdit *cst.InputEdit
}

func (f *fakeLanguage) Dialect() metadata.Dialect { return metadata.DialectMySQL }

func (f *fakeLanguage) Parse(_ context.Context, source string, edit *cst.InputEdit) (*cst.Tree, error) {
	f.lastEdit = edit
	if strings.Contains(source, "!!") {
		bad := strings.Index(source, "!!")
		return csttest.NewNode(cst.KindSelectStatement, 0, len(source)).Add(
			csttest.Error(bad, bad+2),
		).Build(), nil
	}
	table := tableAfterFrom(source)
	if table == "" {
		return csttest.SelectStatement(source).Build(), nil
	}
	return csttest.SelectStatement(source,
		csttest.FromClause(source, csttest.TableRef{Name: table}),
	).Build(), nil
}

func tableAfterFrom(source string) string {
	idx := strings.Index(strings.ToUpper(source), "FROM ")
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(source[idx+len("FROM "):])
	if end := strings.IndexAny(rest, " \t\n;,"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

type fakeLanguages struct {
	lang *fakeLanguage
}

func (f *fakeLanguages) LanguageFor(_ context.Context, dialect metadata.Dialect) (grammar.Language, error) {
	if dialect.Family() != metadata.DialectMySQL {
		return nil, nil
	}
	return f.lang, nil
}

func fixtureCatalog() *static.Catalog {
	return static.New(
		metadata.NewTable("users", "").WithColumns(
			metadata.NewColumn("id", metadata.Simple(metadata.TypeInteger)).WithPrimaryKey(),
			metadata.NewColumn("name", metadata.Varchar(255)),
		),
		metadata.NewTable("orders", "").WithColumns(
			metadata.NewColumn("id", metadata.Simple(metadata.TypeInteger)).WithPrimaryKey(),
			metadata.NewColumn("user_id", metadata.Simple(metadata.TypeInteger)).WithForeignKey("users", "id"),
		),
	)
}

func newTestServer(t *testing.T, opts ...func(*lsp.Options)) (*lsp.Server, *mockClient, *fakeLanguage) {
	t.Helper()

	logger := zap.NewNop()
	lang := &fakeLanguage{}
	options := lsp.Options{
		Logger:   logger,
		Parser:   parser.New(&fakeLanguages{lang: lang}, logger),
		Registry: registry.NewRegistry(),
		Catalog:  fixtureCatalog(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	client := &mockClient{}
	return lsp.NewServer(client, options), client, lang
}

func openDoc(t *testing.T, server *lsp.Server, uri protocol.DocumentURI, text string) {
	t.Helper()
	err := server.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "sql",
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

func TestServerInitialize(t *testing.T) {
	server, _, _ := newTestServer(t)

	result, err := server.Initialize(context.Background(), &protocol.InitializeParams{})
	require.NoError(t, err)

	sync, ok := result.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok, "TextDocumentSync capability not set")
	assert.True(t, sync.OpenClose)
	assert.Equal(t, protocol.TextDocumentSyncKindIncremental, sync.Change)

	require.NotNil(t, result.Capabilities.CompletionProvider)
	assert.Equal(t, []string{".", " "}, result.Capabilities.CompletionProvider.TriggerCharacters)

	hover, ok := result.Capabilities.HoverProvider.(bool)
	assert.True(t, ok && hover, "HoverProvider not enabled")

	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, "unified-sql-lsp", result.ServerInfo.Name)
}

func TestDidOpenCleanDocument(t *testing.T) {
	server, client, _ := newTestServer(t)

	openDoc(t, server, "file:///q.sql", "SELECT id FROM users")

	require.Len(t, client.diagnostics, 1)
	assert.Empty(t, client.diagnostics[0].Diagnostics)
	assert.Equal(t, uint32(1), client.diagnostics[0].Version)
}

func TestDidOpenSyntaxError(t *testing.T) {
	server, client, _ := newTestServer(t)

	openDoc(t, server, "file:///q.sql", "SELECT !! FROM users")

	require.Len(t, client.diagnostics, 1)
	diags := client.diagnostics[0].Diagnostics
	require.NotEmpty(t, diags)
	assert.Equal(t, "unified-sql-lsp", diags[0].Source)
	assert.Equal(t, "SYNTAX-001", diags[0].Code)
	assert.Equal(t, protocol.DiagnosticSeverityError, diags[0].Severity)
}

func TestDidOpenUndefinedTable(t *testing.T) {
	server, client, _ := newTestServer(t)

	openDoc(t, server, "file:///q.sql", "SELECT id FROM ghosts")

	require.Len(t, client.diagnostics, 1)
	diags := client.diagnostics[0].Diagnostics
	require.NotEmpty(t, diags)
	assert.Equal(t, "SEMANTIC-001", diags[0].Code)
	assert.Contains(t, diags[0].Message, "ghosts")
}

func TestDidChangeIncrementalEdit(t *testing.T) {
	server, client, lang := newTestServer(t)
	ctx := context.Background()

	text := "SELECT id FROM users"
	openDoc(t, server, "file:///q.sql", text)

	start := strings.Index(text, "users")
	err := server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///q.sql"},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: uint32(start)},
				End:   protocol.Position{Line: 0, Character: uint32(start + len("users"))},
			},
			Text: "orders",
		}},
	})
	require.NoError(t, err)

	require.NotNil(t, lang.lastEdit, "ranged change should reparse incrementally")
	require.Len(t, client.diagnostics, 2)
	assert.Empty(t, client.diagnostics[1].Diagnostics)
	assert.Equal(t, uint32(2), client.diagnostics[1].Version)
}

func TestDidChangeUnknownDocumentIsDropped(t *testing.T) {
	server, client, _ := newTestServer(t)

	err := server.DidChange(context.Background(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///nope.sql"},
			Version:                1,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "SELECT 1"}},
	})

	require.NoError(t, err)
	assert.Empty(t, client.diagnostics)
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	server, client, _ := newTestServer(t)
	ctx := context.Background()

	openDoc(t, server, "file:///q.sql", "SELECT !! FROM users")
	require.NotEmpty(t, client.diagnostics[0].Diagnostics)

	err := server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///q.sql"},
	})
	require.NoError(t, err)

	require.Len(t, client.diagnostics, 2)
	assert.Empty(t, client.diagnostics[1].Diagnostics)
}

func TestCompletionUnknownDocument(t *testing.T) {
	server, _, _ := newTestServer(t)

	list, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nope.sql"},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Empty(t, list.Items)
}

func TestHoverOnTable(t *testing.T) {
	server, _, _ := newTestServer(t)

	text := "SELECT id FROM users"
	openDoc(t, server, "file:///q.sql", text)

	offset := strings.Index(text, "users")
	result, err := server.Hover(context.Background(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///q.sql"},
			Position:     protocol.Position{Line: 0, Character: uint32(offset)},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, protocol.Markdown, result.Contents.Kind)
	assert.Contains(t, result.Contents.Value, "users")
}

func TestDocumentSymbolOutline(t *testing.T) {
	server, _, _ := newTestServer(t)

	openDoc(t, server, "file:///q.sql", "SELECT id FROM users")

	out, err := server.DocumentSymbol(context.Background(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///q.sql"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	query, ok := out[0].(protocol.DocumentSymbol)
	require.True(t, ok)
	assert.Equal(t, "SELECT", query.Name)
	require.Len(t, query.Children, 1)
	assert.Equal(t, "users", query.Children[0].Name)
	assert.Equal(t, protocol.SymbolKindClass, query.Children[0].Kind)
	assert.Len(t, query.Children[0].Children, 2)
}

func TestDidChangeConfigurationRebuildsCatalog(t *testing.T) {
	var factoryCalls []config.Settings
	server, _, _ := newTestServer(t, func(o *lsp.Options) {
		o.CatalogFactory = func(_ context.Context, settings config.Settings) (catalog.Catalog, error) {
			factoryCalls = append(factoryCalls, settings)
			return fixtureCatalog(), nil
		}
	})

	err := server.DidChangeConfiguration(context.Background(), &protocol.DidChangeConfigurationParams{
		Settings: map[string]interface{}{
			"unifiedSqlLsp": map[string]interface{}{
				"dialect":          "postgresql",
				"connectionString": "postgres://localhost/app",
			},
		},
	})
	require.NoError(t, err)

	require.Len(t, factoryCalls, 1)
	assert.Equal(t, "postgres://localhost/app", factoryCalls[0].ConnectionString)
	assert.Equal(t, "postgresql", factoryCalls[0].Dialect)
}

func TestDidChangeConfigurationMalformedIgnored(t *testing.T) {
	server, _, _ := newTestServer(t)

	err := server.DidChangeConfiguration(context.Background(), &protocol.DidChangeConfigurationParams{
		Settings: map[string]interface{}{"unifiedSqlLsp": map[string]interface{}{"poolSize": "many"}},
	})

	assert.NoError(t, err)
}
