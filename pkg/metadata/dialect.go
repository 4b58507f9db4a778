package metadata

import "strings"

// Dialect identifies a SQL dialect supported by the server.
// Add-on manifests, the grammar binding and the function registry all
// share this vocabulary.
type Dialect string

const (
	DialectMySQL       Dialect = "mysql"
	DialectPostgreSQL  Dialect = "postgresql"
	DialectTiDB        Dialect = "tidb"
	DialectMariaDB     Dialect = "mariadb"
	DialectCockroachDB Dialect = "cockroachdb"
)

// ParseDialect maps a user-supplied tag (language id, config value,
// manifest engine) to a Dialect. Unknown tags return false.
func ParseDialect(s string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return DialectMySQL, true
	case "postgresql", "postgres", "pgsql":
		return DialectPostgreSQL, true
	case "tidb":
		return DialectTiDB, true
	case "mariadb":
		return DialectMariaDB, true
	case "cockroachdb", "cockroach":
		return DialectCockroachDB, true
	default:
		return "", false
	}
}

// Family collapses compatible dialects onto the grammar family that
// parses them: TiDB and MariaDB use the MySQL grammar, CockroachDB the
// PostgreSQL grammar.
func (d Dialect) Family() Dialect {
	switch d {
	case DialectTiDB, DialectMariaDB:
		return DialectMySQL
	case DialectCockroachDB:
		return DialectPostgreSQL
	default:
		return d
	}
}

func (d Dialect) String() string {
	return string(d)
}
