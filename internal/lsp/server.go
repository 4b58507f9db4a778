// Package lsp exposes the analysis pipeline over the Language Server
// Protocol: document lifecycle, completion, hover, document symbols
// and published diagnostics.
package lsp

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/completion"
	"github.com/woxQAQ/unified-sql-lsp/internal/config"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/diagnostics"
	"github.com/woxQAQ/unified-sql-lsp/internal/document"
	"github.com/woxQAQ/unified-sql-lsp/internal/hover"
	"github.com/woxQAQ/unified-sql-lsp/internal/parser"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/internal/symbols"
)

const serverName = "unified-sql-lsp"

// CatalogFactory builds a live catalog from pushed client settings.
// It is called on workspace/didChangeConfiguration when a connection
// string is configured.
type CatalogFactory func(ctx context.Context, settings config.Settings) (catalog.Catalog, error)

// Options wires the server's collaborators.
type Options struct {
	Logger         *zap.Logger
	Parser         *parser.Parser
	Registry       *registry.Registry
	Catalog        catalog.Catalog
	CatalogFactory CatalogFactory
	Version        string
}

// Server implements protocol.Server. Feature requests degrade rather
// than fail: an unparsable buffer or an unreachable catalog produces
// empty results, never a request error.
type Server struct {
	client  protocol.Client
	logger  *zap.Logger
	version string

	documents *document.Store
	parser    *parser.Parser
	registry  *registry.Registry
	catalog   *catalogHandle
	factory   CatalogFactory

	completion *completion.Engine
	hover      *hover.Engine
	symbols    *symbols.Engine
	syntax     *diagnostics.Collector
	semantic   *diagnostics.Validator

	mu       sync.RWMutex
	settings config.Settings
}

// NewServer creates a server bound to one client connection. The
// engines share the swappable catalog handle so a configuration push
// can switch from the static catalog to a live one without rebuilding
// them.
func NewServer(client protocol.Client, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handle := newCatalogHandle(opts.Catalog)

	return &Server{
		client:     client,
		logger:     logger.With(zap.String("component", "lsp-server")),
		version:    opts.Version,
		documents:  document.NewStore(logger),
		parser:     opts.Parser,
		registry:   opts.Registry,
		catalog:    handle,
		factory:    opts.CatalogFactory,
		completion: completion.NewEngine(handle, opts.Registry, logger),
		hover:      hover.NewEngine(handle, opts.Registry, logger),
		symbols:    symbols.NewEngine(handle, logger),
		syntax:     diagnostics.NewCollector(logger),
		semantic:   diagnostics.NewValidator(handle, logger),
		settings:   config.DefaultSettings(),
	}
}

// Initialize advertises incremental sync, completion with "." and " "
// triggers, hover and document symbols.
func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initializing",
		zap.String("client_name", clientName(params)),
	)

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", " "},
			},
			HoverProvider:          true,
			DocumentSymbolProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: s.version,
		},
	}, nil
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	s.logger.Info("Client initialized")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutdown requested")
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	return nil
}

// DidOpen parses the opened buffer and publishes its diagnostics.
func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	dialect := s.parser.ResolveDialect(string(doc.LanguageID))

	var tree *cst.Tree
	result, err := s.parser.Parse(ctx, dialect, doc.Text)
	if err != nil {
		s.logger.Warn("Parse failed on open, document kept without a tree",
			zap.String("uri", string(doc.URI)), zap.Error(err))
	} else {
		tree = result.Tree
	}

	snap := s.documents.Open(doc.URI, string(doc.LanguageID), doc.Text, doc.Version, tree)
	s.publishDiagnostics(ctx, snap)
	return nil
}

// DidChange applies the content changes under the document's lock,
// reparsing incrementally when the notification allows it.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	snap, err := s.documents.Update(params.TextDocument.URI, func(prev document.Snapshot) (document.Snapshot, error) {
		changes := make([]parser.Change, 0, len(params.ContentChanges))
		for _, ch := range params.ContentChanges {
			changes = append(changes, toParserChange(ch))
		}

		dialect := s.parser.ResolveDialect(prev.LanguageID)
		newText, result, perr := s.parser.Reparse(ctx, dialect, prev.Text, prev.Tree, changes)

		next := prev
		next.Text = newText
		next.Revision = params.TextDocument.Version
		if perr != nil {
			// Text still advances so later edits splice correctly.
			next.Tree = nil
			s.logger.Warn("Reparse failed, text applied without a tree",
				zap.String("uri", string(prev.URI)), zap.Error(perr))
		} else {
			next.Tree = result.Tree
		}
		return next, nil
	})
	if err != nil {
		var notOpen *document.NotOpenError
		if errors.As(err, &notOpen) {
			s.logger.Warn("Change for unopened document dropped",
				zap.String("uri", string(params.TextDocument.URI)))
			return nil
		}
		return err
	}

	s.publishDiagnostics(ctx, snap)
	return nil
}

// DidClose drops the buffer and clears its published diagnostics.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	if !s.documents.Close(params.TextDocument.URI) {
		return nil
	}
	return s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

// DidChangeConfiguration applies pushed settings: dialect override,
// catalog connection and query limits.
func (s *Server) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	settings, err := config.DecodeSettings(params.Settings)
	if err != nil {
		s.logger.Warn("Ignoring malformed configuration push", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	prev := s.settings
	s.settings = settings
	s.mu.Unlock()

	s.parser.SetOverride(settings.DialectOverride())

	if s.factory != nil && catalogSettingsChanged(prev, settings) {
		next, err := s.factory(ctx, settings)
		if err != nil {
			s.logger.Error("Catalog rebuild failed, keeping previous catalog", zap.Error(err))
		} else {
			old := s.catalog.Swap(next)
			closeCatalog(old)
			s.logger.Info("Catalog switched",
				zap.Bool("live", settings.ConnectionString != ""))
		}
	}

	s.logger.Info("Configuration applied",
		zap.String("dialect", settings.Dialect),
		zap.Int("pool_size", settings.PoolSize),
		zap.Int("query_timeout_secs", settings.QueryTimeoutSecs),
	)
	return nil
}

// Completion returns candidates for the cursor position. Catalog
// access is bounded by the configured query timeout; on expiry the
// engine degrades to keyword items.
func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	snap, ok := s.documents.Get(params.TextDocument.URI)
	if !ok || snap.Tree == nil {
		return &protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}

	ctx, cancel := s.boundedContext(ctx)
	defer cancel()

	offset := cst.PositionToByte(snap.Text, fromProtocolPosition(params.Position))
	dialect := s.parser.ResolveDialect(snap.LanguageID)
	items := s.completion.Complete(ctx, dialect, snap.Tree.Root(), snap.Text, offset)

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        toProtocolCompletionItems(items),
	}, nil
}

// Hover returns markdown for the identifier under the cursor, or nil
// when nothing resolvable is there.
func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	snap, ok := s.documents.Get(params.TextDocument.URI)
	if !ok || snap.Tree == nil {
		return nil, nil
	}

	ctx, cancel := s.boundedContext(ctx)
	defer cancel()

	offset := cst.PositionToByte(snap.Text, fromProtocolPosition(params.Position))
	dialect := s.parser.ResolveDialect(snap.LanguageID)
	content, ok := s.hover.Hover(ctx, dialect, snap.Tree.Root(), snap.Text, offset)
	if !ok {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content,
		},
	}, nil
}

// DocumentSymbol returns the query outline. Catalog failures degrade
// to an empty outline.
func (s *Server) DocumentSymbol(ctx context.Context, params *protocol.DocumentSymbolParams) ([]interface{}, error) {
	snap, ok := s.documents.Get(params.TextDocument.URI)
	if !ok || snap.Tree == nil {
		return nil, nil
	}

	ctx, cancel := s.boundedContext(ctx)
	defer cancel()

	syms, err := s.symbols.DocumentSymbols(ctx, snap.Tree.Root(), snap.Text)
	if err != nil {
		s.logger.Warn("Document symbols degraded to empty",
			zap.String("uri", string(snap.URI)), zap.Error(err))
		return nil, nil
	}

	out := make([]interface{}, 0, len(syms))
	for _, sym := range syms {
		out = append(out, toProtocolSymbol(sym, snap.Text))
	}
	return out, nil
}

// publishDiagnostics runs the syntax pass and, when it is clean, the
// semantic pass, then pushes the result to the client.
func (s *Server) publishDiagnostics(ctx context.Context, snap document.Snapshot) {
	diags := []protocol.Diagnostic{}

	if snap.Tree != nil {
		found := s.syntax.Syntax(snap.Tree.Root(), snap.Text)
		if len(found) == 0 {
			vctx, cancel := s.boundedContext(ctx)
			found = s.semantic.Semantic(vctx, snap.Tree.Root(), snap.Text)
			cancel()
		}
		for _, d := range found {
			diags = append(diags, toProtocolDiagnostic(d, snap.Text))
		}
	}

	if err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         snap.URI,
		Version:     uint32(snap.Revision),
		Diagnostics: diags,
	}); err != nil {
		s.logger.Warn("Publishing diagnostics failed",
			zap.String("uri", string(snap.URI)), zap.Error(err))
	}
}

// boundedContext caps catalog-touching work at the configured query
// timeout so a stalled database degrades features instead of hanging
// requests.
func (s *Server) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	s.mu.RLock()
	secs := s.settings.QueryTimeoutSecs
	s.mu.RUnlock()
	if secs < 1 {
		secs = config.DefaultQueryTimeoutSecs
	}
	return context.WithTimeout(ctx, time.Duration(secs)*time.Second)
}

func catalogSettingsChanged(prev, next config.Settings) bool {
	if prev.ConnectionString != next.ConnectionString ||
		prev.Dialect != next.Dialect ||
		prev.PoolSize != next.PoolSize ||
		prev.QueryTimeoutSecs != next.QueryTimeoutSecs {
		return true
	}
	return !stringSlicesEqual(prev.SchemaFilter.Allow, next.SchemaFilter.Allow) ||
		!stringSlicesEqual(prev.SchemaFilter.Exclude, next.SchemaFilter.Exclude)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clientName(params *protocol.InitializeParams) string {
	if params != nil && params.ClientInfo != nil {
		return params.ClientInfo.Name
	}
	return "unknown"
}
