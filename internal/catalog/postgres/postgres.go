// Package postgres implements the catalog contract against a live
// PostgreSQL server via pgx connection pools.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/catalog"
	"github.com/woxQAQ/unified-sql-lsp/internal/registry"
	"github.com/woxQAQ/unified-sql-lsp/pkg/metadata"
)

// Options configures the catalog connection.
type Options struct {
	// ConnString is a pgx connection string or URL.
	ConnString string
	// PoolSize caps pool connections. Minimum 1; default 10.
	PoolSize int
	// QueryTimeout bounds each metadata query. Default 5s.
	QueryTimeout time.Duration
	// SchemaFilter restricts visible schemas.
	SchemaFilter catalog.SchemaFilter
}

// Querier is the subset of pgxpool.Pool the catalog uses. Tests
// substitute a fake.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Catalog reads schema metadata from information_schema and pg_catalog.
type Catalog struct {
	pool   Querier
	closer func()
	opts   Options
	funcs  *registry.Registry
	logger *zap.Logger
}

// New builds a connection pool and verifies it with a ping.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Catalog, error) {
	if opts.ConnString == "" {
		return nil, &catalog.MisconfiguredError{Msg: "empty PostgreSQL connection string"}
	}
	if opts.PoolSize < 1 {
		opts.PoolSize = 10
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}

	cfg, err := pgxpool.ParseConfig(opts.ConnString)
	if err != nil {
		return nil, &catalog.MisconfiguredError{Msg: err.Error()}
	}
	cfg.MaxConns = int32(opts.PoolSize)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &catalog.ConnectionError{Msg: "pool creation failed", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.QueryTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, &catalog.ConnectionError{Msg: "ping failed", Err: err}
	}

	c := NewWithQuerier(pool, opts, logger)
	c.closer = pool.Close
	return c, nil
}

// NewWithQuerier wraps an existing querier; used by tests.
func NewWithQuerier(pool Querier, opts Options, logger *zap.Logger) *Catalog {
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 5 * time.Second
	}
	return &Catalog{
		pool:   pool,
		opts:   opts,
		funcs:  registry.NewRegistry(),
		logger: logger.With(zap.String("component", "catalog-postgres")),
	}
}

// Close releases the pool.
func (c *Catalog) Close() {
	if c.closer != nil {
		c.closer()
	}
}

const listTablesQuery = `
SELECT t.table_schema, t.table_name, t.table_type,
       COALESCE(s.n_live_tup, 0), obj_description(pc.oid, 'pg_class')
FROM information_schema.tables t
LEFT JOIN pg_stat_user_tables s
  ON s.schemaname = t.table_schema AND s.relname = t.table_name
LEFT JOIN pg_class pc
  ON pc.relname = t.table_name
 AND pc.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = t.table_schema)
WHERE t.table_schema NOT IN ('pg_catalog', 'information_schema')
ORDER BY t.table_schema, t.table_name`

// ListTables returns all visible tables in (schema, name) order.
func (c *Catalog) ListTables(ctx context.Context) ([]metadata.TableMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.QueryTimeout)
	defer cancel()

	rows, err := c.pool.Query(ctx, listTablesQuery)
	if err != nil {
		return nil, c.wrapErr("list_tables", err)
	}
	defer rows.Close()

	var tables []metadata.TableMetadata
	for rows.Next() {
		var (
			schema, name, tableType string
			rowCount                int64
			comment                 *string
		)
		if err := rows.Scan(&schema, &name, &tableType, &rowCount, &comment); err != nil {
			return nil, &catalog.QueryError{Query: "list_tables", Err: err}
		}
		if !c.opts.SchemaFilter.Match(schema) {
			continue
		}

		table := metadata.NewTable(name, schema).WithType(mapTableType(tableType))
		if rowCount > 0 {
			table = table.WithRowCount(rowCount)
		}
		if comment != nil && *comment != "" {
			table = table.WithComment(*comment)
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
       c.column_default,
       col_description(pc.oid, c.ordinal_position),
       EXISTS (
         SELECT 1 FROM information_schema.table_constraints tc
         JOIN information_schema.key_column_usage kcu
           ON kcu.constraint_name = tc.constraint_name
          AND kcu.table_schema = tc.table_schema
         WHERE tc.constraint_type = 'PRIMARY KEY'
           AND tc.table_name = c.table_name
           AND kcu.column_name = c.column_name
       ) AS is_pk
FROM information_schema.columns c
LEFT JOIN pg_class pc
  ON pc.relname = c.table_name
 AND pc.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = c.table_schema)
WHERE LOWER(c.table_name) = LOWER($1)
ORDER BY c.ordinal_position`

// GetColumns returns the columns of the named table; a missing table
// fails with NotFoundError.
func (c *Catalog) GetColumns(ctx context.Context, tableName string) ([]metadata.ColumnMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.QueryTimeout)
	defer cancel()

	normalized := catalog.NormalizeIdentifier(tableName)
	rows, err := c.pool.Query(ctx, getColumnsQuery, normalized)
	if err != nil {
		return nil, c.wrapErr("get_columns", err)
	}
	defer rows.Close()

	var columns []metadata.ColumnMetadata
	for rows.Next() {
		var (
			name, dataType, nullable string
			maxLen                   *int64
			defaultVal, comment      *string
			isPK                     bool
		)
		if err := rows.Scan(&name, &dataType, &maxLen, &nullable, &defaultVal, &comment, &isPK); err != nil {
			return nil, &catalog.QueryError{Query: "get_columns", Err: err}
		}

		length := 0
		if maxLen != nil {
			length = int(*maxLen)
		}
		col := metadata.NewColumn(name, mapDataType(dataType, length))
		if nullable == "YES" {
			col = col.WithNullable()
		}
		if defaultVal != nil {
			col = col.WithDefault(*defaultVal)
		}
		if comment != nil && *comment != "" {
			col = col.WithComment(*comment)
		}
		if isPK {
			col = col.WithPrimaryKey()
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
	case "FOREIGN":
		return metadata.TableTypeSystem
	case "LOCAL TEMPORARY":
		return metadata.TableTypeTemporary
	default:
		return metadata.TableTypeTable
	}
}

func mapDataType(t string, maxLen int) metadata.DataType {
	switch t {
	case "integer":
		return metadata.Simple(metadata.TypeInteger)
	case "bigint":
		return metadata.Simple(metadata.TypeBigInt)
	case "smallint":
		return metadata.Simple(metadata.TypeSmallInt)
	case "numeric", "decimal":
		return metadata.Simple(metadata.TypeDecimal)
	case "real":
		return metadata.Simple(metadata.TypeFloat)
	case "double precision":
		return metadata.Simple(metadata.TypeDouble)
	case "character varying":
		return metadata.Varchar(maxLen)
	case "character":
		return metadata.Char(maxLen)
	case "text":
		return metadata.Simple(metadata.TypeText)
	case "bytea":
		return metadata.Simple(metadata.TypeBlob)
	case "date":
		return metadata.Simple(metadata.TypeDate)
	case "time without time zone", "time with time zone":
		return metadata.Simple(metadata.TypeTime)
	case "timestamp without time zone", "timestamp with time zone":
		return metadata.Simple(metadata.TypeTimestamp)
	case "boolean":
		return metadata.Simple(metadata.TypeBoolean)
	case "json", "jsonb":
		return metadata.Simple(metadata.TypeJSON)
	case "uuid":
		return metadata.Simple(metadata.TypeUUID)
	case "ARRAY":
		return metadata.Array(metadata.Other("any"))
	default:
		return metadata.Other(t)
	}
}
