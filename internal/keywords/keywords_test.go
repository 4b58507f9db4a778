package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

func labels(set []Keyword) []string {
	out := make([]string, len(set))
	for i, k := range set {
		out[i] = k.Label
	}
	return out
}

func TestStatementKeywords(t *testing.T) {
	p := NewProvider(metadata.DialectMySQL)
	set := p.For(ContextStatementStart)

	assert.NotEmpty(t, set)
	assert.Contains(t, labels(set), "SELECT")
	assert.Contains(t, labels(set), "WITH")
}

func TestSelectClauseDialectOverrides(t *testing.T) {
	mysql := labels(NewProvider(metadata.DialectMySQL).For(ContextSelectClause))
	assert.Contains(t, mysql, "STRAIGHT_JOIN")
	assert.Contains(t, mysql, "LOCK IN SHARE MODE")
	assert.NotContains(t, mysql, "FETCH")

	pg := labels(NewProvider(metadata.DialectPostgreSQL).For(ContextSelectClause))
	assert.Contains(t, pg, "FETCH")
	assert.NotContains(t, pg, "STRAIGHT_JOIN")

	// TiDB rides the MySQL family.
	tidb := labels(NewProvider(metadata.DialectTiDB).For(ContextSelectClause))
	assert.Contains(t, tidb, "STRAIGHT_JOIN")
}

func TestAfterFromExcludesFrom(t *testing.T) {
	set := labels(NewProvider(metadata.DialectMySQL).For(ContextAfterFrom))
	assert.NotContains(t, set, "FROM")
	assert.Contains(t, set, "WHERE")
	assert.Contains(t, set, "JOIN")
}

func TestJoinTypeKeywords(t *testing.T) {
	set := labels(NewProvider(metadata.DialectPostgreSQL).For(ContextJoinType))
	assert.Equal(t, []string{"INNER", "LEFT", "RIGHT", "FULL", "CROSS", "NATURAL", "LATERAL"}, set)
}

func TestInsertKeywordsPerDialect(t *testing.T) {
	mysql := labels(NewProvider(metadata.DialectMySQL).For(ContextInsert))
	assert.Contains(t, mysql, "ON DUPLICATE KEY UPDATE")
	assert.NotContains(t, mysql, "RETURNING")

	pg := labels(NewProvider(metadata.DialectPostgreSQL).For(ContextInsert))
	assert.Contains(t, pg, "RETURNING")
	assert.NotContains(t, pg, "ON DUPLICATE KEY UPDATE")
}

func TestUpdateDeleteReturning(t *testing.T) {
	pgUpdate := labels(NewProvider(metadata.DialectPostgreSQL).For(ContextUpdate))
	assert.Contains(t, pgUpdate, "RETURNING")

	mysqlDelete := labels(NewProvider(metadata.DialectMySQL).For(ContextDelete))
	assert.NotContains(t, mysqlDelete, "RETURNING")
}

func TestUnknownContextEmpty(t *testing.T) {
	assert.Empty(t, NewProvider(metadata.DialectMySQL).For(Context("nope")))
}

func TestKeywordsUppercased(t *testing.T) {
	for _, ctx := range []Context{
		ContextStatementStart, ContextSelectClause, ContextExpression,
		ContextJoinType, ContextSortDirection,
	} {
		for _, k := range NewProvider(metadata.DialectMySQL).For(ctx) {
			assert.Equal(t, strings.ToUpper(k.Label), k.Label, "context %s", ctx)
		}
	}
}
