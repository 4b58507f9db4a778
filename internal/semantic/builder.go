package semantic

import (
	"strings"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
)

// ScopeBuilder walks a parsed SELECT and materializes its scope tree:
// one Query scope at the top, a Subquery scope per nested SELECT, and
// a CTE scope per WITH entry.
type ScopeBuilder struct {
	logger *zap.Logger
}

// NewScopeBuilder creates a builder.
func NewScopeBuilder(logger *zap.Logger) *ScopeBuilder {
	return &ScopeBuilder{logger: logger.With(zap.String("component", "scope-builder"))}
}

// BuildFromSelect builds scopes for a select_statement node and
// returns the manager plus the root scope ID. A SELECT without a FROM
// clause fails with NoFromClauseError.
func (b *ScopeBuilder) BuildFromSelect(selectNode *cst.Node, source string) (*ScopeManager, int, error) {
	mgr := NewScopeManager()
	rootID, err := b.buildSelect(mgr, selectNode, source, -1, ScopeQuery)
	if err != nil {
		return nil, 0, err
	}
	return mgr, rootID, nil
}

func (b *ScopeBuilder) buildSelect(mgr *ScopeManager, selectNode *cst.Node, source string, parentID int, scopeType ScopeType) (int, error) {
	scopeID := mgr.CreateScope(scopeType, parentID)
	if scope, ok := mgr.Scope(scopeID); ok {
		scope.Start = selectNode.StartByte()
		scope.End = selectNode.EndByte()
	}

	if with := selectNode.FirstChildOfKind(cst.KindWithClause); with != nil {
		if err := b.buildCTEs(mgr, with, source, scopeID); err != nil {
			return 0, err
		}
	}

	from := selectNode.FirstChildOfKind(cst.KindFromClause)
	if from == nil {
		return 0, &NoFromClauseError{}
	}

	if err := b.extractTables(mgr, from, source, scopeID); err != nil {
		return 0, err
	}

	// Subqueries outside FROM (WHERE, projection) still open scopes so
	// their inner references resolve against the right tables.
	for _, clause := range selectNode.Children() {
		if clause.Kind() == cst.KindFromClause || clause.Kind() == cst.KindWithClause {
			continue
		}
		if err := b.buildNestedSubqueries(mgr, clause, source, scopeID); err != nil {
			return 0, err
		}
	}

	return scopeID, nil
}

// buildCTEs opens one CTE scope per WITH entry and registers each CTE
// name as a table in the enclosing scope.
func (b *ScopeBuilder) buildCTEs(mgr *ScopeManager, with *cst.Node, source string, parentID int) error {
	for _, cte := range with.ChildrenNamed(cst.KindCTE) {
		name := ""
		if id := cte.FirstChildOfKind(cst.KindIdentifier); id != nil {
			name = id.Text(source)
		}

		inner := firstSelect(cte)
		if inner != nil {
			if _, err := b.buildSelect(mgr, inner, source, parentID, ScopeCTE); err != nil {
				// A half-typed CTE body should not hide the outer
				// query's tables.
				if _, ok := err.(*NoFromClauseError); !ok {
					return err
				}
				b.logger.Warn("Skipping CTE body without FROM clause", zap.String("cte", name))
			}
		}

		if name == "" {
			continue
		}
		symbol := NewTableSymbol(name)
		symbol.IsCTE = true
		if inner != nil {
			symbol.Columns = cteColumns(inner, source, name)
		}
		parent, _ := mgr.Scope(parentID)
		if err := parent.AddTable(symbol); err != nil {
			return err
		}
	}
	return nil
}

// cteColumns derives the column set a CTE exposes from its body's
// projection. A star projection leaves the set empty; references
// through such a CTE cannot be checked.
func cteColumns(inner *cst.Node, source, cteName string) []ColumnSymbol {
	proj := inner.FirstChildOfKind(cst.KindProjection)
	if proj == nil || strings.Contains(proj.Text(source), "*") {
		return nil
	}

	var cols []ColumnSymbol
	for _, item := range proj.Children() {
		name := projectedName(item, source)
		if name == "" {
			continue
		}
		cols = append(cols, ColumnSymbol{Name: name, TableName: cteName})
	}
	return cols
}

// projectedName is the output name of one projection item: its alias
// when present, otherwise the last identifier of the reference.
func projectedName(item *cst.Node, source string) string {
	if item.Kind() == cst.KindAlias {
		return identifierText(item, source)
	}
	if alias := item.FirstChildOfKind(cst.KindAlias); alias != nil {
		return identifierText(alias, source)
	}
	switch item.Kind() {
	case cst.KindColumnName, cst.KindIdentifier:
		name := item.Text(source)
		for _, child := range item.Children() {
			if child.Kind() == cst.KindIdentifier {
				name = child.Text(source)
			}
		}
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return ""
}

// extractTables walks the FROM clause collecting table references and
// joined tables. Recursion stops at table_reference and join_clause
// nodes; everything else descends.
func (b *ScopeBuilder) extractTables(mgr *ScopeManager, node *cst.Node, source string, scopeID int) error {
	for _, child := range node.Children() {
		switch child.Kind() {
		case cst.KindTableReference:
			if sub := child.FirstChildOfKind(cst.KindSubquery); sub != nil {
				if err := b.buildDerivedTable(mgr, child, sub, source, scopeID); err != nil {
					return err
				}
				continue
			}
			table, ok := b.parseTableReference(child, source)
			if !ok {
				b.logger.Warn("Skipping unparseable table reference",
					zap.Int("start", child.StartByte()))
				continue
			}
			if err := b.addTable(mgr, scopeID, table); err != nil {
				return err
			}
		case cst.KindJoinClause:
			table, ok := b.parseJoinClause(child, source)
			if !ok {
				b.logger.Warn("Skipping unparseable join clause",
					zap.Int("start", child.StartByte()))
				continue
			}
			if err := b.addTable(mgr, scopeID, table); err != nil {
				return err
			}
		default:
			if err := b.extractTables(mgr, child, source, scopeID); err != nil {
				return err
			}
		}
	}
	return nil
}

// addTable registers a FROM or JOIN table. An unaliased reference to
// a name already registered by the WITH clause is the same table, not
// a conflict. Scopes are addressed by ID because creating nested
// scopes invalidates pointers into the manager.
func (b *ScopeBuilder) addTable(mgr *ScopeManager, scopeID int, table TableSymbol) error {
	scope, ok := mgr.Scope(scopeID)
	if !ok {
		return &InvalidScopeError{ID: scopeID}
	}
	if table.Alias == "" {
		if existing, ok := scope.FindTable(table.DisplayName()); ok && existing.IsCTE {
			return nil
		}
	}
	return scope.AddTable(table)
}

// buildDerivedTable handles "FROM (SELECT ...) alias": the inner
// SELECT gets a Subquery scope and the alias becomes a table symbol in
// the enclosing scope.
func (b *ScopeBuilder) buildDerivedTable(mgr *ScopeManager, ref, sub *cst.Node, source string, scopeID int) error {
	if inner := firstSelect(sub); inner != nil {
		if _, err := b.buildSelect(mgr, inner, source, scopeID, ScopeSubquery); err != nil {
			if _, ok := err.(*NoFromClauseError); !ok {
				return err
			}
		}
	}

	alias := aliasOf(ref, sub, source)
	if alias == "" {
		return nil
	}
	return b.addTable(mgr, scopeID, NewTableSymbol(alias))
}

// buildNestedSubqueries opens Subquery scopes for SELECTs nested in
// non-FROM clauses.
func (b *ScopeBuilder) buildNestedSubqueries(mgr *ScopeManager, node *cst.Node, source string, scopeID int) error {
	for _, child := range node.Children() {
		if child.Kind() == cst.KindSubquery {
			if inner := firstSelect(child); inner != nil {
				if _, err := b.buildSelect(mgr, inner, source, scopeID, ScopeSubquery); err != nil {
					if _, ok := err.(*NoFromClauseError); !ok {
						return err
					}
				}
			}
			continue
		}
		if err := b.buildNestedSubqueries(mgr, child, source, scopeID); err != nil {
			return err
		}
	}
	return nil
}

// parseTableReference reads "users", "users u" or "users AS u". The
// first table_name or identifier child is the table; an alias child or
// trailing identifier is the alias.
func (b *ScopeBuilder) parseTableReference(node *cst.Node, source string) (TableSymbol, bool) {
	var name, alias string

	for _, child := range node.Children() {
		switch child.Kind() {
		case cst.KindTableName:
			if name == "" {
				name = identifierText(child, source)
			}
		case cst.KindIdentifier:
			if name == "" {
				name = child.Text(source)
			} else if alias == "" {
				alias = child.Text(source)
			}
		case cst.KindAlias:
			if alias == "" {
				alias = identifierText(child, source)
			}
		}
	}

	if name == "" {
		return TableSymbol{}, false
	}
	table := NewTableSymbol(name)
	if alias != "" {
		table = table.WithAlias(alias)
	}
	return table, true
}

// parseJoinClause reads the joined table out of "JOIN orders o ON ...".
// Only the first table_name counts; identifiers in the join condition
// must not be mistaken for the table.
func (b *ScopeBuilder) parseJoinClause(node *cst.Node, source string) (TableSymbol, bool) {
	tableName := node.FirstChildOfKind(cst.KindTableName)
	if tableName == nil {
		if ref := node.FirstChildOfKind(cst.KindTableReference); ref != nil {
			return b.parseTableReference(ref, source)
		}
		return TableSymbol{}, false
	}

	table := NewTableSymbol(identifierText(tableName, source))
	if aliasNode := node.FirstChildOfKind(cst.KindAlias); aliasNode != nil {
		table = table.WithAlias(identifierText(aliasNode, source))
	} else {
		for _, child := range node.Children() {
			if child.Kind() == cst.KindIdentifier && child.StartByte() >= tableName.EndByte() {
				table = table.WithAlias(child.Text(source))
				break
			}
		}
	}
	return table, true
}

func identifierText(node *cst.Node, source string) string {
	if id := node.FirstChildOfKind(cst.KindIdentifier); id != nil {
		return id.Text(source)
	}
	return node.Text(source)
}

func aliasOf(ref, sub *cst.Node, source string) string {
	if aliasNode := ref.FirstChildOfKind(cst.KindAlias); aliasNode != nil {
		return identifierText(aliasNode, source)
	}
	for _, child := range ref.Children() {
		if child.Kind() == cst.KindIdentifier && child.StartByte() >= sub.EndByte() {
			return child.Text(source)
		}
	}
	return ""
}

func firstSelect(node *cst.Node) *cst.Node {
	if node.Kind() == cst.KindSelectStatement {
		return node
	}
	for _, child := range node.Children() {
		if found := firstSelect(child); found != nil {
			return found
		}
	}
	return nil
}
