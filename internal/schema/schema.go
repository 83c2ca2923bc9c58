// Package schema resolves the column layout of a destination table from the catalog.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/vvka-141/neonsql/internal/scalar"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// maxIdentifierLength is PostgreSQL's NAMEDATALEN-1.
const maxIdentifierLength = 63

// columnsQuery lists a table's columns in their natural order. The schema
// defaults to the session's current schema when $1 is NULL.
const columnsQuery = `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = COALESCE($1::text, current_schema())
  AND table_name = $2
ORDER BY ordinal_position`

// Column describes one destination column.
type Column struct {
	Name     string
	DataType string
	Kind     scalar.Kind
}

// TableName is a possibly schema-qualified table reference.
type TableName struct {
	Schema string // empty means current_schema()
	Name   string
}

// Parts returns the identifier parts for quoting.
func (t TableName) Parts() []string {
	if t.Schema == "" {
		return []string{t.Name}
	}
	return []string{t.Schema, t.Name}
}

func (t TableName) String() string {
	return strings.Join(t.Parts(), ".")
}

// ParseTableName splits "name" or "schema.name". Identifiers are matched against
// the catalog exactly as written; no case folding is applied.
func ParseTableName(s string) (TableName, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) > 2 {
		return TableName{}, &neonsql.SchemaError{Table: s, Reason: "expected table or schema.table"}
	}
	for _, p := range parts {
		if p == "" {
			return TableName{}, &neonsql.SchemaError{Table: s, Reason: "empty identifier"}
		}
		if len(p) > maxIdentifierLength {
			return TableName{}, &neonsql.SchemaError{Table: s, Reason: fmt.Sprintf("identifier %q exceeds %d bytes", p, maxIdentifierLength)}
		}
		if strings.ContainsRune(p, 0) {
			return TableName{}, &neonsql.SchemaError{Table: s, Reason: "identifier contains NUL"}
		}
	}
	if len(parts) == 1 {
		return TableName{Name: parts[0]}, nil
	}
	return TableName{Schema: parts[0], Name: parts[1]}, nil
}

// Lookup fetches the ordered columns of table. It fails with a *neonsql.SchemaError
// when the query fails or the table has no visible columns.
func Lookup(ctx context.Context, exec neonsql.QueryExecutor, table TableName) ([]Column, error) {
	var schemaArg any
	if table.Schema != "" {
		schemaArg = table.Schema
	}

	rs, err := exec.Query(ctx, columnsQuery, schemaArg, table.Name)
	if err != nil {
		return nil, &neonsql.SchemaError{Table: table.String(), Err: err}
	}
	if rs.Len() == 0 {
		return nil, &neonsql.SchemaError{Table: table.String(), Reason: "table does not exist or has no columns"}
	}

	columns := make([]Column, 0, rs.Len())
	for i, values := range rs.Rows {
		if len(values) != 2 {
			return nil, &neonsql.SchemaError{Table: table.String(), Reason: fmt.Sprintf("unexpected catalog row %d", i)}
		}
		name, ok1 := values[0].(string)
		dataType, ok2 := values[1].(string)
		if !ok1 || !ok2 {
			return nil, &neonsql.SchemaError{Table: table.String(), Reason: fmt.Sprintf("unexpected catalog row %d", i)}
		}
		columns = append(columns, Column{
			Name:     name,
			DataType: dataType,
			Kind:     scalar.ParseKind(dataType),
		})
	}
	return columns, nil
}

// CheckLoadable returns an *neonsql.UnsupportedTypeError for the first column
// whose kind cannot be loaded from text.
func CheckLoadable(columns []Column) error {
	for _, c := range columns {
		if !c.Kind.Loadable() {
			return &neonsql.UnsupportedTypeError{Column: c.Name, Type: c.DataType}
		}
	}
	return nil
}

// Names returns the column names in order.
func Names(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
