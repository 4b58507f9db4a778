package diagnostics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog/static"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst/csttest"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

func newTestValidator() *Validator {
	users := metadata.NewTable("users", "public").
		WithColumns(
			metadata.NewColumn("id", metadata.Simple(metadata.TypeInteger)).WithPrimaryKey(),
			metadata.NewColumn("name", metadata.Simple(metadata.TypeText)),
		)
	orders := metadata.NewTable("orders", "public").
		WithColumns(
			metadata.NewColumn("id", metadata.Simple(metadata.TypeInteger)).WithPrimaryKey(),
			metadata.NewColumn("user_id", metadata.Simple(metadata.TypeInteger)),
			metadata.NewColumn("total", metadata.Simple(metadata.TypeDecimal)),
		)
	return NewValidator(static.New(users, orders), zap.NewNop())
}

func TestSemanticUndefinedTable(t *testing.T) {
	v := newTestValidator()
	source := "SELECT * FROM ghost"
	tree := csttest.SelectStatement(source,
		csttest.FromClause(source, csttest.TableRef{Name: "ghost"}),
	).Build()

	diags := v.Semantic(context.Background(), tree.Root(), source)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUndefinedTable, diags[0].Code)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "ghost")

	ghostStart, ghostEnd := csttest.Span(source, "ghost")
	assert.Equal(t, ghostStart, diags[0].StartByte)
	assert.Equal(t, ghostEnd, diags[0].EndByte)
}

func TestSemanticUndefinedQualifiedColumn(t *testing.T) {
	v := newTestValidator()
	source := "SELECT u.nope FROM users u"
	tree := csttest.SelectStatement(source,
		csttest.FromClause(source, csttest.TableRef{Name: "users", Alias: "u"}),
	).Build()

	diags := v.Semantic(context.Background(), tree.Root(), source)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeUndefinedColumn, diags[0].Code)
	assert.Contains(t, diags[0].Message, "u.nope")

	refStart, refEnd := csttest.Span(source, "u.nope")
	assert.Equal(t, refStart, diags[0].StartByte)
	assert.Equal(t, refEnd, diags[0].EndByte)
}

func TestSemanticAmbiguousColumn(t *testing.T) {
	v := newTestValidator()
	source := "SELECT id FROM users, orders"
	tree := csttest.SelectStatement(source,
		csttest.Projection(source, csttest.ColumnName(source, "id")),
		csttest.FromClause(source,
			csttest.TableRef{Name: "users"},
			csttest.TableRef{Name: "orders"},
		),
	).Build()

	diags := v.Semantic(context.Background(), tree.Root(), source)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeAmbiguousColumn, diags[0].Code)
	assert.Contains(t, diags[0].Message, "Ambiguous")
	assert.Contains(t, diags[0].Message, "id")
}

func TestSemanticValidQuery(t *testing.T) {
	v := newTestValidator()
	source := "SELECT u.id FROM users u"
	tree := csttest.SelectStatement(source,
		csttest.FromClause(source, csttest.TableRef{Name: "users", Alias: "u"}),
	).Build()

	assert.Empty(t, v.Semantic(context.Background(), tree.Root(), source))
}

func TestSemanticSubqueryAliasResolvesInItsScope(t *testing.T) {
	v := newTestValidator()
	source := "SELECT id FROM users WHERE id IN (SELECT o.user_id FROM orders o)"

	fromStart, _ := csttest.Span(source, "FROM")
	usersStart, usersEnd := csttest.Span(source, "users")
	whereStart, _ := csttest.Span(source, "WHERE")

	innerStart, _ := csttest.Span(source, "SELECT o.user_id")
	innerFromStart, _ := csttest.SpanAfter(source, "FROM", innerStart)
	ordersStart, ordersEnd := csttest.SpanAfter(source, "orders", innerFromStart)
	aliasStart, aliasEnd := csttest.SpanAfter(source, "o", ordersEnd)

	inner := csttest.NewNode(cst.KindSelectStatement, innerStart, aliasEnd).Add(
		csttest.NewNode(cst.KindFromClause, innerFromStart, aliasEnd).Add(
			csttest.NewNode(cst.KindTableReference, ordersStart, aliasEnd).Add(
				csttest.NewNode(cst.KindTableName, ordersStart, ordersEnd).Add(
					csttest.NewNode(cst.KindIdentifier, ordersStart, ordersEnd),
				),
				csttest.NewNode(cst.KindIdentifier, aliasStart, aliasEnd),
			),
		),
	)
	sub := csttest.NewNode(cst.KindSubquery, innerStart-1, aliasEnd+1).Add(inner)

	tree := csttest.SelectStatement(source,
		csttest.Projection(source, csttest.ColumnName(source, "id")),
		csttest.NewNode(cst.KindFromClause, fromStart, whereStart-1).Add(
			csttest.NewNode(cst.KindTableReference, usersStart, usersEnd).Add(
				csttest.NewNode(cst.KindTableName, usersStart, usersEnd).Add(
					csttest.NewNode(cst.KindIdentifier, usersStart, usersEnd),
				),
			),
		),
		csttest.NewNode(cst.KindWhereClause, whereStart, len(source)).Add(sub),
	).Build()

	// The alias "o" lives in the subquery scope, not the statement root.
	assert.Empty(t, v.Semantic(context.Background(), tree.Root(), source))
}

func cteTree(source string, innerProjection *csttest.NodeBuilder) *csttest.NodeBuilder {
	cteNameStart, cteNameEnd := csttest.Span(source, "recent")
	innerStart, _ := csttest.Span(source, "SELECT")
	usersStart, usersEnd := csttest.Span(source, "users")
	innerFromStart, _ := csttest.Span(source, "FROM users")

	inner := csttest.NewNode(cst.KindSelectStatement, innerStart, usersEnd).Add(
		innerProjection,
		csttest.NewNode(cst.KindFromClause, innerFromStart, usersEnd).Add(
			csttest.NewNode(cst.KindTableReference, usersStart, usersEnd).Add(
				csttest.NewNode(cst.KindTableName, usersStart, usersEnd).Add(
					csttest.NewNode(cst.KindIdentifier, usersStart, usersEnd),
				),
			),
		),
	)
	cte := csttest.NewNode(cst.KindCTE, cteNameStart, usersEnd+1).Add(
		csttest.NewNode(cst.KindIdentifier, cteNameStart, cteNameEnd),
		inner,
	)
	with := csttest.NewNode(cst.KindWithClause, 0, usersEnd+1).Add(cte)

	outerFromStart, _ := csttest.SpanAfter(source, "FROM", usersEnd)
	refStart, refEnd := csttest.SpanAfter(source, "recent", outerFromStart)
	outerFrom := csttest.NewNode(cst.KindFromClause, outerFromStart, len(source)).Add(
		csttest.NewNode(cst.KindTableReference, refStart, refEnd).Add(
			csttest.NewNode(cst.KindTableName, refStart, refEnd).Add(
				csttest.NewNode(cst.KindIdentifier, refStart, refEnd),
			),
		),
	)

	return csttest.SelectStatement(source, with, outerFrom)
}

func TestSemanticCTEColumnResolves(t *testing.T) {
	v := newTestValidator()
	source := "WITH recent AS (SELECT id FROM users) SELECT recent.id FROM recent"

	idStart, idEnd := csttest.Span(source, "id")
	proj := csttest.NewNode(cst.KindProjection, idStart, idEnd).Add(
		csttest.NewNode(cst.KindColumnName, idStart, idEnd).Add(
			csttest.NewNode(cst.KindIdentifier, idStart, idEnd),
		),
	)
	tree := cteTree(source, proj).Build()

	// "recent.id" resolves through the column set the CTE body projects.
	assert.Empty(t, v.Semantic(context.Background(), tree.Root(), source))
}

func TestSemanticCTEStarProjectionUnchecked(t *testing.T) {
	v := newTestValidator()
	source := "WITH recent AS (SELECT * FROM users) SELECT recent.name FROM recent"

	starStart, starEnd := csttest.Span(source, "*")
	proj := csttest.NewNode(cst.KindProjection, starStart, starEnd)
	tree := cteTree(source, proj).Build()

	// A star projection hides the CTE's column set, so references
	// through it must not be flagged.
	assert.Empty(t, v.Semantic(context.Background(), tree.Root(), source))
}

func TestSemanticSchemaQualifiedTableName(t *testing.T) {
	v := newTestValidator()
	source := "SELECT name FROM auth.users"

	fromStart, _ := csttest.Span(source, "FROM")
	qualStart, qualEnd := csttest.Span(source, "auth.users")
	usersStart, usersEnd := csttest.Span(source, "users")

	tree := csttest.SelectStatement(source,
		csttest.Projection(source, csttest.ColumnName(source, "name")),
		csttest.NewNode(cst.KindFromClause, fromStart, len(source)).Add(
			csttest.NewNode(cst.KindTableReference, qualStart, qualEnd).Add(
				csttest.NewNode(cst.KindTableName, qualStart, qualEnd).Add(
					csttest.NewNode(cst.KindIdentifier, usersStart, usersEnd),
				),
			),
		),
	).Build()

	// "auth.users" is a schema-qualified table, not a column reference.
	assert.Empty(t, v.Semantic(context.Background(), tree.Root(), source))
}

func TestSemanticUnknownQualifierReportedOnce(t *testing.T) {
	v := newTestValidator()
	source := "SELECT g.id FROM ghost g"
	tree := csttest.SelectStatement(source,
		csttest.FromClause(source, csttest.TableRef{Name: "ghost", Alias: "g"}),
	).Build()

	diags := v.Semantic(context.Background(), tree.Root(), source)

	tables := 0
	for _, d := range diags {
		if d.Code == CodeUndefinedTable {
			tables++
		}
	}
	assert.Equal(t, 1, tables, "ghost must be reported once, not per reference")
}
