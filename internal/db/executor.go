package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// conn is the subset of *pgx.Conn used by ConnExecutor.
type conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// typeNamer resolves a type OID to the server's type name.
type typeNamer func(oid uint32) string

// ConnExecutor runs statements on a single connection.
// Not safe for concurrent use.
type ConnExecutor struct {
	conn     conn
	typeName typeNamer
}

// NewConnExecutor wraps c. Type names are resolved through the connection's type map.
func NewConnExecutor(c *pgx.Conn) *ConnExecutor {
	typeMap := c.TypeMap()
	return &ConnExecutor{
		conn: c,
		typeName: func(oid uint32) string {
			if t, ok := typeMap.TypeForOID(oid); ok {
				return t.Name
			}
			return fmt.Sprintf("oid:%d", oid)
		},
	}
}

// Query runs sql and reads every row into memory.
func (e *ConnExecutor) Query(ctx context.Context, sql string, args ...any) (*neonsql.ResultSet, error) {
	rows, err := e.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, &neonsql.ExecutionError{SQL: sql, Err: err}
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	rs := &neonsql.ResultSet{Fields: make([]neonsql.Field, len(descs))}
	for i, fd := range descs {
		rs.Fields[i] = neonsql.Field{Name: fd.Name, TypeName: e.typeName(fd.DataTypeOID)}
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, &neonsql.ExecutionError{SQL: sql, Err: err}
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, &neonsql.ExecutionError{SQL: sql, Err: err}
	}
	return rs, nil
}

// Exec runs sql and returns the affected row count. Without arguments the
// simple protocol is used, so sql may hold several statements.
func (e *ConnExecutor) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := e.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, &neonsql.ExecutionError{SQL: sql, Err: err}
	}
	return tag.RowsAffected(), nil
}

var _ neonsql.QueryExecutor = (*ConnExecutor)(nil)
