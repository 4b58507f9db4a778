package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input string
		want  Dialect
		ok    bool
	}{
		{"mysql", DialectMySQL, true},
		{"MySQL", DialectMySQL, true},
		{"postgresql", DialectPostgreSQL, true},
		{"postgres", DialectPostgreSQL, true},
		{"  Postgres ", DialectPostgreSQL, true},
		{"tidb", DialectTiDB, true},
		{"mariadb", DialectMariaDB, true},
		{"cockroachdb", DialectCockroachDB, true},
		{"oracle", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDialect(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestDialectFamily(t *testing.T) {
	assert.Equal(t, DialectMySQL, DialectTiDB.Family())
	assert.Equal(t, DialectMySQL, DialectMariaDB.Family())
	assert.Equal(t, DialectPostgreSQL, DialectCockroachDB.Family())
	assert.Equal(t, DialectMySQL, DialectMySQL.Family())
	assert.Equal(t, DialectPostgreSQL, DialectPostgreSQL.Family())
}

func TestDataTypeString(t *testing.T) {
	tests := []struct {
		dt   DataType
		want string
	}{
		{Simple(TypeInteger), "INTEGER"},
		{Simple(TypeBigInt), "BIGINT"},
		{Varchar(255), "VARCHAR(255)"},
		{Varchar(0), "VARCHAR"},
		{Char(2), "CHAR(2)"},
		{Enum("a", "b"), "ENUM(a, b)"},
		{Array(Simple(TypeInteger)), "INTEGER[]"},
		{Other("citext"), "CITEXT"},
		{Simple(TypeTimestamp), "TIMESTAMP"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dt.String())
	}
}

func TestDataTypeEqual(t *testing.T) {
	assert.True(t, Varchar(255).Equal(Varchar(255)))
	assert.False(t, Varchar(100).Equal(Varchar(255)))
	assert.True(t, Array(Simple(TypeInteger)).Equal(Array(Simple(TypeInteger))))
	assert.False(t, Array(Simple(TypeInteger)).Equal(Array(Simple(TypeText))))
	assert.True(t, Enum("a", "b").Equal(Enum("a", "b")))
	assert.False(t, Enum("a").Equal(Enum("b")))
}

func TestTableColumnLookup(t *testing.T) {
	table := NewTable("users", "public").WithColumns(
		NewColumn("id", Simple(TypeInteger)).WithPrimaryKey(),
		NewColumn("name", Simple(TypeText)),
	)

	_, ok := table.Column("id")
	assert.True(t, ok)
	_, ok = table.Column("email")
	assert.False(t, ok)
}

func TestTablePrimaryKeys(t *testing.T) {
	table := NewTable("user_roles", "public").WithColumns(
		NewColumn("id", Simple(TypeInteger)).WithPrimaryKey(),
		NewColumn("user_id", Simple(TypeInteger)).WithPrimaryKey(),
		NewColumn("name", Simple(TypeText)),
	)

	pks := table.PrimaryKeys()
	require.Len(t, pks, 2)
	assert.Equal(t, "id", pks[0].Name)
	assert.Equal(t, "user_id", pks[1].Name)
}

func TestForeignKeyBuilder(t *testing.T) {
	col := NewColumn("user_id", Simple(TypeInteger)).WithForeignKey("users", "id")
	assert.True(t, col.IsForeignKey)
	require.NotNil(t, col.References)
	assert.Equal(t, "users", col.References.Table)
	assert.Equal(t, "id", col.References.Column)
}

func TestFunctionSignature(t *testing.T) {
	fn := NewFunction("COUNT", Simple(TypeBigInt)).
		WithType(FunctionTypeAggregate).
		WithParameters(FunctionParameter{Name: "expr", DataType: Other("any")})

	sig := fn.Signature()
	assert.Contains(t, sig, "COUNT")
	assert.Contains(t, sig, "BIGINT")
	assert.Contains(t, sig, "expr")
}

func TestColumnJSONRoundtrip(t *testing.T) {
	col := NewColumn("data", Simple(TypeJSON)).WithNullable().WithComment("payload")

	raw, err := json.Marshal(col)
	require.NoError(t, err)

	var decoded ColumnMetadata
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, col, decoded)
}
