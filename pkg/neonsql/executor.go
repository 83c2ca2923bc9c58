package neonsql

import "context"

// QueryExecutor runs SQL against a live database.
//
// Implementations wrap a single connection; they are not safe for concurrent use.
type QueryExecutor interface {
	// Query runs sql and materialises every returned row.
	Query(ctx context.Context, sql string, args ...any) (*ResultSet, error)

	// Exec runs sql and returns the number of rows it affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Field describes one column of a result set.
type Field struct {
	// Name is the column label reported by the server.
	Name string

	// TypeName is the server's name for the column's runtime type ("int4", "text", ...).
	TypeName string
}

// ResultSet is a fully materialised query result.
// Rows[i][j] holds the decoded value of field j in row i, or nil for SQL NULL.
type ResultSet struct {
	Fields []Field
	Rows   [][]any
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	return len(r.Rows)
}

// FieldNames returns the column labels in result order.
func (r *ResultSet) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Row returns a view of row i.
func (r *ResultSet) Row(i int) Row {
	return resultRow{fields: r.Fields, values: r.Rows[i]}
}

// Row is a single result row whose shape is only known at runtime.
type Row interface {
	// NumColumns returns the number of fields in the row.
	NumColumns() int

	// TypeName returns the runtime type name of column i.
	TypeName(i int) string

	// Value returns the decoded value of column i, or nil for SQL NULL.
	Value(i int) any
}

type resultRow struct {
	fields []Field
	values []any
}

func (r resultRow) NumColumns() int       { return len(r.values) }
func (r resultRow) TypeName(i int) string { return r.fields[i].TypeName }
func (r resultRow) Value(i int) any       { return r.values[i] }
