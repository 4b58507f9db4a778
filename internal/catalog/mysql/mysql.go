// Package mysql implements the catalog contract against a live MySQL
// server via database/sql and the go-sql-driver.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql" // driver registration
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Options configures the catalog connection.
type Options struct {
	// DSN in go-sql-driver format, e.g. "user:pass@tcp(host:3306)/db".
	DSN string
	// PoolSize caps open connections. Minimum 1; default 10.
	PoolSize int
	// QueryTimeout bounds each metadata query. Default 5s.
	QueryTimeout time.Duration
	// SchemaFilter restricts visible schemas.
	SchemaFilter catalog.SchemaFilter
}

// Catalog reads schema metadata from information_schema.
type Catalog struct {
	db     *sql.DB
	opts   Options
	funcs  *registry.Registry
	logger *zap.Logger
}

// New opens a connection pool against the configured server. The
// connection is verified with a ping so misconfiguration surfaces at
// startup rather than on the first completion request.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Catalog, error) {
	if opts.DSN == "" {
		return nil, &catalog.MisconfiguredError{Msg: "empty MySQL DSN"}
	}
	if opts.PoolSize < 1 {
		opts.PoolSize = 10
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}

	db, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, &catalog.MisconfiguredError{Msg: err.Error()}
	}
	db.SetMaxOpenConns(opts.PoolSize)
	db.SetMaxIdleConns(opts.PoolSize)

	pingCtx, cancel := context.WithTimeout(ctx, opts.QueryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &catalog.ConnectionError{Msg: "ping failed", Err: err}
	}

	return NewWithDB(db, opts, logger), nil
}

// NewWithDB wraps an existing database handle. Tests use this with a
// sqlmock handle.
func NewWithDB(db *sql.DB, opts Options, logger *zap.Logger) *Catalog {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}
	return &Catalog{
		db:     db,
		opts:   opts,
		funcs:  registry.NewRegistry(),
		logger: logger.With(zap.String("component", "catalog-mysql")),
	}
}

// Close releases the connection pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}

const listTablesQuery = `
SELECT table_schema, table_name, table_type, table_rows, table_comment
FROM information_schema.tables
WHERE table_schema NOT IN ('information_schema', 'performance_schema', 'mysql', 'sys')
ORDER BY table_schema, table_name`

// ListTables returns all visible tables in (schema, name) order.
func (c *Catalog) ListTables(ctx context.Context) ([]metadata.TableMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.QueryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, c.wrapErr("list_tables", err)
	}
	defer rows.Close()

	var tables []metadata.TableMetadata
	for rows.Next() {
		var (
			schema, name, tableType string
			rowCount                sql.NullInt64
			comment                 sql.NullString
		)
		if err := rows.Scan(&schema, &name, &tableType, &rowCount, &comment); err != nil {
			return nil, &catalog.QueryError{Query: "list_tables", Err: err}
		}
		if !c.opts.SchemaFilter.Match(schema) {
			continue
		}

		table := metadata.NewTable(name, schema).WithType(mapTableType(tableType))
		if rowCount.Valid {
			table = table.WithRowCount(rowCount.Int64)
		}
		if comment.Valid && comment.String != "" {
			table = table.WithComment(comment.String)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, c.wrapErr("list_tables", err)
	}

	c.logger.Debug("Listed tables", zap.Int("count", len(tables)))
	return tables, nil
}

const getColumnsQuery = `
SELECT c.column_name, c.data_type, c.character_maximum_length, c.is_nullable,
       c.column_default, c.column_comment, c.column_key,
       k.referenced_table_name, k.referenced_column_name
FROM information_schema.columns c
LEFT JOIN information_schema.key_column_usage k
  ON k.table_schema = c.table_schema
 AND k.table_name = c.table_name
 AND k.column_name = c.column_name
 AND k.referenced_table_name IS NOT NULL
WHERE LOWER(c.table_name) = LOWER(?)
ORDER BY c.ordinal_position`

// GetColumns returns the columns of the named table; a missing table
// fails with NotFoundError.
func (c *Catalog) GetColumns(ctx context.Context, tableName string) ([]metadata.ColumnMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.QueryTimeout)
	defer cancel()

	normalized := catalog.NormalizeIdentifier(tableName)
	rows, err := c.db.QueryContext(ctx, getColumnsQuery, normalized)
	if err != nil {
		return nil, c.wrapErr("get_columns", err)
	}
	defer rows.Close()

	var columns []metadata.ColumnMetadata
	for rows.Next() {
		var (
			name, dataType, nullable string
			maxLen                   sql.NullInt64
			defaultVal, comment, key sql.NullString
			refTable, refColumn      sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &maxLen, &nullable, &defaultVal, &comment, &key, &refTable, &refColumn); err != nil {
			return nil, &catalog.QueryError{Query: "get_columns", Err: err}
		}

		col := metadata.NewColumn(name, mapDataType(dataType, int(maxLen.Int64)))
		if nullable == "YES" {
			col = col.WithNullable()
		}
		if defaultVal.Valid {
			col = col.WithDefault(defaultVal.String)
		}
		if comment.Valid && comment.String != "" {
			col = col.WithComment(comment.String)
		}
		if key.Valid && key.String == "PRI" {
			col = col.WithPrimaryKey()
		}
		if refTable.Valid && refColumn.Valid {
			col = col.WithForeignKey(refTable.String, refColumn.String)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, c.wrapErr("get_columns", err)
	}

	if len(columns) == 0 {
		return nil, &catalog.NotFoundError{What: "table", Name: tableName}
	}
	return columns, nil
}

// ListFunctions returns the built-in functions for the dialect.
func (c *Catalog) ListFunctions(ctx context.Context, dialect metadata.Dialect) ([]metadata.FunctionMetadata, error) {
	return c.funcs.List(dialect), nil
}

func (c *Catalog) wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &catalog.TimeoutError{Operation: op, Duration: c.opts.QueryTimeout}
	}
	return &catalog.QueryError{Query: op, Err: err}
}

func mapTableType(t string) metadata.TableType {
	switch t {
	case "VIEW":
		return metadata.TableTypeView
	case "SYSTEM VIEW":
		return metadata.TableTypeSystem
	default:
		return metadata.TableTypeTable
	}
}

func mapDataType(t string, maxLen int) metadata.DataType {
	switch t {
	case "int", "mediumint":
		return metadata.Simple(metadata.TypeInteger)
	case "bigint":
		return metadata.Simple(metadata.TypeBigInt)
	case "smallint":
		return metadata.Simple(metadata.TypeSmallInt)
	case "tinyint":
		return metadata.Simple(metadata.TypeTinyInt)
	case "decimal", "numeric":
		return metadata.Simple(metadata.TypeDecimal)
	case "float":
		return metadata.Simple(metadata.TypeFloat)
	case "double":
		return metadata.Simple(metadata.TypeDouble)
	case "varchar":
		return metadata.Varchar(maxLen)
	case "char":
		return metadata.Char(maxLen)
	case "text", "mediumtext", "longtext", "tinytext":
		return metadata.Simple(metadata.TypeText)
	case "binary":
		return metadata.Simple(metadata.TypeBinary)
	case "varbinary":
		return metadata.DataType{Kind: metadata.TypeVarBinary, Length: maxLen}
	case "blob", "mediumblob", "longblob", "tinyblob":
		return metadata.Simple(metadata.TypeBlob)
	case "date":
		return metadata.Simple(metadata.TypeDate)
	case "time":
		return metadata.Simple(metadata.TypeTime)
	case "datetime":
		return metadata.Simple(metadata.TypeDateTime)
	case "timestamp":
		return metadata.Simple(metadata.TypeTimestamp)
	case "bool", "boolean":
		return metadata.Simple(metadata.TypeBoolean)
	case "json":
		return metadata.Simple(metadata.TypeJSON)
	case "enum":
		return metadata.DataType{Kind: metadata.TypeEnum}
	default:
		return metadata.Other(t)
	}
}
