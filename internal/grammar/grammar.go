// Package grammar binds SQL dialects to the wasm grammar modules that
// parse them. Grammars ship as add-ons; the binding resolves a dialect
// to a loaded add-on through its engine tag, instantiates the module
// once and hands out a shared, thread-safe handle.
package grammar

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/addon"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/wasm"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Language is a parse handle for one dialect family. Handles are safe
// for concurrent use and cheap to share.
type Language interface {
	Dialect() metadata.Dialect
	Parse(ctx context.Context, source string, edit *cst.InputEdit) (*cst.Tree, error)
}

// Addons is the slice of the add-on manager the binding needs.
type Addons interface {
	FindAddonForEngine(engine string) (*addon.Addon, error)
	Instantiate(ctx context.Context, addonName string) (*wasm.Instance, error)
}

// Binding maps dialects to instantiated grammar modules.
type Binding struct {
	addons Addons
	logger *zap.Logger

	mu    sync.Mutex
	cache map[metadata.Dialect]*Grammar
}

// NewBinding creates a grammar binding over the add-on manager.
func NewBinding(addons Addons, logger *zap.Logger) *Binding {
	return &Binding{
		addons: addons,
		logger: logger.With(zap.String("component", "grammar-binding")),
		cache:  make(map[metadata.Dialect]*Grammar),
	}
}

// engineFor maps a dialect family to the add-on engine tag that
// parses it. Unknown dialects map to the empty string.
func engineFor(dialect metadata.Dialect) string {
	switch dialect.Family() {
	case metadata.DialectMySQL:
		return "MySQL"
	case metadata.DialectPostgreSQL:
		return "PostgreSQL"
	default:
		return ""
	}
}

// LanguageFor resolves a dialect to its grammar. MySQL, TiDB and
// MariaDB share the mysql grammar; PostgreSQL and CockroachDB share
// the postgresql grammar. Unknown dialects return nil with no error.
func (b *Binding) LanguageFor(ctx context.Context, dialect metadata.Dialect) (Language, error) {
	engine := engineFor(dialect)
	if engine == "" {
		return nil, nil
	}
	family := dialect.Family()

	b.mu.Lock()
	defer b.mu.Unlock()

	if g, ok := b.cache[family]; ok {
		return g, nil
	}

	add, err := b.addons.FindAddonForEngine(engine)
	if err != nil {
		return nil, &NoGrammarError{Dialect: family, Err: err}
	}
	if !add.HasCapability("grammar") {
		return nil, &NoGrammarError{Dialect: family}
	}

	instance, err := b.addons.Instantiate(ctx, add.Name())
	if err != nil {
		return nil, &NoGrammarError{Dialect: family, Err: err}
	}

	b.logger.Info("Grammar module bound",
		zap.String("dialect", family.String()),
		zap.String("addon", add.Name()),
	)

	g := &Grammar{dialect: family, instance: instance}
	b.cache[family] = g
	return g, nil
}

// Functions returns the dialect functions the bound grammar add-on
// contributes through its metadata export, if it declares the
// functions capability.
func (b *Binding) Functions(ctx context.Context, dialect metadata.Dialect) ([]metadata.FunctionMetadata, error) {
	lang, err := b.LanguageFor(ctx, dialect)
	if err != nil || lang == nil {
		return nil, err
	}
	g, ok := lang.(*Grammar)
	if !ok {
		return nil, nil
	}
	return g.Functions(ctx)
}

// Grammar is a dialect grammar backed by a wasm add-on instance.
type Grammar struct {
	dialect  metadata.Dialect
	instance *wasm.Instance
}

// Dialect returns the grammar family this handle parses.
func (g *Grammar) Dialect() metadata.Dialect {
	return g.dialect
}

// parseRequest is the JSON payload handed to the guest parse export.
type parseRequest struct {
	Source string    `json:"source"`
	Edit   *wireEdit `json:"edit,omitempty"`
}

type wireEdit struct {
	StartByte   int       `json:"start_byte"`
	OldEndByte  int       `json:"old_end_byte"`
	NewEndByte  int       `json:"new_end_byte"`
	StartPoint  wirePoint `json:"start_point"`
	OldEndPoint wirePoint `json:"old_end_point"`
	NewEndPoint wirePoint `json:"new_end_point"`
}

type wirePoint struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Parse runs the guest parser over source. A non-nil edit asks the
// guest to reuse its previous tree for the unchanged regions.
func (g *Grammar) Parse(ctx context.Context, source string, edit *cst.InputEdit) (*cst.Tree, error) {
	req := parseRequest{Source: source}
	if edit != nil {
		req.Edit = &wireEdit{
			StartByte:   edit.StartByte,
			OldEndByte:  edit.OldEndByte,
			NewEndByte:  edit.NewEndByte,
			StartPoint:  wirePoint{Row: edit.StartPoint.Line, Column: edit.StartPoint.Character},
			OldEndPoint: wirePoint{Row: edit.OldEndPoint.Line, Column: edit.OldEndPoint.Character},
			NewEndPoint: wirePoint{Row: edit.NewEndPoint.Line, Column: edit.NewEndPoint.Character},
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	out, err := g.instance.Parse(ctx, payload)
	if err != nil {
		return nil, &ParseError{Dialect: g.dialect, Err: err}
	}
	tree, err := cst.Decode(out)
	if err != nil {
		return nil, &ParseError{Dialect: g.dialect, Err: err}
	}
	return tree, nil
}

// Functions decodes the guest metadata export. Modules without one
// contribute nothing.
func (g *Grammar) Functions(ctx context.Context) ([]metadata.FunctionMetadata, error) {
	out, err := g.instance.Metadata(ctx)
	if err != nil {
		var notFound *wasm.FunctionNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	var funcs []metadata.FunctionMetadata
	if err := json.Unmarshal(out, &funcs); err != nil {
		return nil, err
	}
	return funcs, nil
}
