// Package alias resolves table aliases that the scope builder could
// not bind, guessing the intended table from the catalog.
//
// Strategies apply in order: exact table name, prefix match with word
// boundary preference, first letter plus numeric suffix ("e1" for
// "employees"), and finally the only table in a single-table schema.
package alias

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/semantic"
)

// Strategy identifies which rule produced a resolution.
type Strategy string

const (
	StrategyExactMatch         Strategy = "exact_match"
	StrategyStartsWith         Strategy = "starts_with"
	StrategyFirstLetterNumeric Strategy = "first_letter_numeric"
	StrategySingleTable        Strategy = "single_table"
)

// Strategies returns all strategies in precedence order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyExactMatch,
		StrategyStartsWith,
		StrategyFirstLetterNumeric,
		StrategySingleTable,
	}
}

// Resolution is a successful alias resolution.
type Resolution struct {
	Table    semantic.TableSymbol
	Strategy Strategy
}

// Resolver maps aliases to catalog tables.
type Resolver struct {
	catalog catalog.Catalog
	logger  *zap.Logger
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(cat catalog.Catalog, logger *zap.Logger) *Resolver {
	return &Resolver{
		catalog: cat,
		logger:  logger.With(zap.String("component", "alias-resolver")),
	}
}

// Resolve tries each strategy in order and returns the first table
// that has columns. A nil result means no strategy matched; that is
// not an error.
func (r *Resolver) Resolve(ctx context.Context, alias string) (*Resolution, error) {
	for _, strategy := range Strategies() {
		res, err := r.tryStrategy(ctx, alias, strategy)
		if err != nil {
			return nil, err
		}
		if res != nil {
			r.logger.Debug("Resolved alias",
				zap.String("alias", alias),
				zap.String("table", res.Table.Name),
				zap.String("strategy", string(res.Strategy)))
			return res, nil
		}
	}
	return nil, nil
}

// ResolveMany resolves several aliases, dropping the ones no strategy
// matched.
func (r *Resolver) ResolveMany(ctx context.Context, aliases []string) ([]semantic.TableSymbol, error) {
	var out []semantic.TableSymbol
	for _, alias := range aliases {
		res, err := r.Resolve(ctx, alias)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out = append(out, res.Table)
		}
	}
	return out, nil
}

func (r *Resolver) tryStrategy(ctx context.Context, alias string, strategy Strategy) (*Resolution, error) {
	switch strategy {
	case StrategyExactMatch:
		return r.tryExactMatch(ctx, alias)
	case StrategyStartsWith:
		return r.tryStartsWith(ctx, alias)
	case StrategyFirstLetterNumeric:
		return r.tryFirstLetterNumeric(ctx, alias)
	case StrategySingleTable:
		return r.trySingleTable(ctx, alias)
	default:
		return nil, nil
	}
}

// tryExactMatch loads the alias as if it were a real table name.
func (r *Resolver) tryExactMatch(ctx context.Context, alias string) (*Resolution, error) {
	cols, err := r.catalog.GetColumns(ctx, alias)
	if err != nil || len(cols) == 0 {
		return nil, nil
	}
	table := semantic.NewTableSymbol(alias).
		WithColumns(semantic.ColumnsFromMetadata(alias, cols))
	return &Resolution{Table: table, Strategy: StrategyExactMatch}, nil
}

// tryStartsWith finds tables whose name starts with the alias. Word
// boundary matches (the prefix ends the name or is followed by "_")
// beat plain prefix matches; among equals, the shortest name wins so
// "ord" picks "orders" over "order_line_items".
func (r *Resolver) tryStartsWith(ctx context.Context, alias string) (*Resolution, error) {
	tables, err := r.catalog.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range tables {
		if catalog.IdentifiersEqual(t.Name, alias) {
			if res := r.load(ctx, t.Name, alias, StrategyStartsWith); res != nil {
				return res, nil
			}
		}
	}

	aliasLower := strings.ToLower(catalog.NormalizeIdentifier(alias))
	best := ""
	for _, t := range tables {
		nameLower := strings.ToLower(t.Name)
		if !strings.HasPrefix(nameLower, aliasLower) {
			continue
		}
		rest := nameLower[len(aliasLower):]
		if rest != "" && rest[0] != '_' {
			continue
		}
		if best == "" || len(t.Name) < len(best) {
			best = t.Name
		}
	}
	if best != "" {
		if res := r.load(ctx, best, alias, StrategyStartsWith); res != nil {
			return res, nil
		}
	}

	best = ""
	for _, t := range tables {
		if !strings.HasPrefix(strings.ToLower(t.Name), aliasLower) {
			continue
		}
		if best == "" || len(t.Name) < len(best) {
			best = t.Name
		}
	}
	if best != "" {
		if res := r.load(ctx, best, alias, StrategyStartsWith); res != nil {
			return res, nil
		}
	}

	return nil, nil
}

// tryFirstLetterNumeric handles self-join style aliases: one letter
// matching the table's first letter, optionally followed by digits.
func (r *Resolver) tryFirstLetterNumeric(ctx context.Context, alias string) (*Resolution, error) {
	runes := []rune(alias)
	if len(runes) == 0 {
		return nil, nil
	}
	for _, c := range runes[1:] {
		if !unicode.IsDigit(c) {
			return nil, nil
		}
	}

	tables, err := r.catalog.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	first := unicode.ToLower(runes[0])
	for _, t := range tables {
		name := []rune(t.Name)
		if len(name) == 0 || unicode.ToLower(name[0]) != first {
			continue
		}
		if res := r.load(ctx, t.Name, alias, StrategyFirstLetterNumeric); res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// trySingleTable uses the only table in the schema, whatever the alias.
func (r *Resolver) trySingleTable(ctx context.Context, alias string) (*Resolution, error) {
	tables, err := r.catalog.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if len(tables) != 1 {
		return nil, nil
	}

	cols, err := r.catalog.GetColumns(ctx, tables[0].Name)
	if err != nil {
		return nil, err
	}
	table := semantic.NewTableSymbol(tables[0].Name).
		WithAlias(alias).
		WithColumns(semantic.ColumnsFromMetadata(tables[0].Name, cols))
	return &Resolution{Table: table, Strategy: StrategySingleTable}, nil
}

// load fetches columns for tableName and stamps the alias. A lookup
// failure or empty column set yields nil so the caller moves on.
func (r *Resolver) load(ctx context.Context, tableName, alias string, strategy Strategy) *Resolution {
	cols, err := r.catalog.GetColumns(ctx, tableName)
	if err != nil || len(cols) == 0 {
		return nil
	}
	table := semantic.NewTableSymbol(tableName).
		WithAlias(alias).
		WithColumns(semantic.ColumnsFromMetadata(tableName, cols))
	return &Resolution{Table: table, Strategy: strategy}
}
