package grammar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/addon"
	"github.com/woxQAQ/unified-sql-lsp/internal/wasm"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

type fakeAddons struct {
	t            *testing.T
	byEngine     map[string]*addon.Addon
	instantiated int
	findErr      error
}

func (f *fakeAddons) FindAddonForEngine(engine string) (*addon.Addon, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	a, ok := f.byEngine[engine]
	if !ok {
		f.t.Fatalf("unexpected engine lookup %q", engine)
	}
	return a, nil
}

func (f *fakeAddons) Instantiate(ctx context.Context, addonName string) (*wasm.Instance, error) {
	f.instantiated++
	return &wasm.Instance{Name: addonName}, nil
}

func grammarAddon(name, engine string, caps ...string) *addon.Addon {
	return &addon.Addon{Manifest: &addon.Manifest{
		Name:         name,
		Engine:       engine,
		Capabilities: caps,
	}}
}

func TestEngineFor(t *testing.T) {
	tests := []struct {
		dialect metadata.Dialect
		engine  string
	}{
		{metadata.DialectMySQL, "MySQL"},
		{metadata.DialectTiDB, "MySQL"},
		{metadata.DialectMariaDB, "MySQL"},
		{metadata.DialectPostgreSQL, "PostgreSQL"},
		{metadata.DialectCockroachDB, "PostgreSQL"},
		{metadata.Dialect("oracle"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.engine, engineFor(tt.dialect), "dialect %s", tt.dialect)
	}
}

func TestLanguageForUnknownDialect(t *testing.T) {
	b := NewBinding(&fakeAddons{t: t}, zap.NewNop())

	lang, err := b.LanguageFor(context.Background(), metadata.Dialect("oracle"))
	require.NoError(t, err)
	assert.Nil(t, lang)
}

func TestLanguageForSharesHandleAcrossFamily(t *testing.T) {
	addons := &fakeAddons{t: t, byEngine: map[string]*addon.Addon{
		"MySQL": grammarAddon("mysql-grammar", "MySQL", "grammar"),
	}}
	b := NewBinding(addons, zap.NewNop())

	mysql, err := b.LanguageFor(context.Background(), metadata.DialectMySQL)
	require.NoError(t, err)
	require.NotNil(t, mysql)
	assert.Equal(t, metadata.DialectMySQL, mysql.Dialect())

	tidb, err := b.LanguageFor(context.Background(), metadata.DialectTiDB)
	require.NoError(t, err)

	assert.Same(t, mysql, tidb, "TiDB must reuse the mysql grammar instance")
	assert.Equal(t, 1, addons.instantiated)
}

func TestLanguageForMissingGrammarCapability(t *testing.T) {
	addons := &fakeAddons{t: t, byEngine: map[string]*addon.Addon{
		"PostgreSQL": grammarAddon("pg-functions", "PostgreSQL", "functions"),
	}}
	b := NewBinding(addons, zap.NewNop())

	_, err := b.LanguageFor(context.Background(), metadata.DialectPostgreSQL)

	var noGrammar *NoGrammarError
	require.ErrorAs(t, err, &noGrammar)
	assert.Equal(t, metadata.DialectPostgreSQL, noGrammar.Dialect)
}

func TestLanguageForNoAddonLoaded(t *testing.T) {
	addons := &fakeAddons{t: t, findErr: errors.New("no add-on found for engine 'MySQL'")}
	b := NewBinding(addons, zap.NewNop())

	_, err := b.LanguageFor(context.Background(), metadata.DialectMySQL)

	var noGrammar *NoGrammarError
	require.ErrorAs(t, err, &noGrammar)
}
