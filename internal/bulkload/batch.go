package bulkload

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Placeholders renders rows parenthesised groups of cols numbered placeholders.
// Row r, column c (zero-indexed) receives $(r*cols+c+1).
func Placeholders(rows, cols int) string {
	if rows <= 0 || cols <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(rows * cols * 6)
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Batch is one multi-row INSERT. Params[i] binds placeholder i+1.
type Batch struct {
	Table          pgx.Identifier
	Columns        []string
	PlaceholderSQL string
	Params         []Param
}

// NewBatch assembles a batch from rows already coerced in column order.
func NewBatch(table pgx.Identifier, columns []string, rows [][]Param) *Batch {
	params := make([]Param, 0, len(rows)*len(columns))
	for _, row := range rows {
		params = append(params, row...)
	}
	return &Batch{
		Table:          table,
		Columns:        columns,
		PlaceholderSQL: Placeholders(len(rows), len(columns)),
		Params:         params,
	}
}

// Rows returns the number of records in the batch.
func (b *Batch) Rows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return len(b.Params) / len(b.Columns)
}

// SQL renders the INSERT statement with quoted identifiers.
func (b *Batch) SQL() string {
	cols := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
	}
	return "INSERT INTO " + b.Table.Sanitize() +
		" (" + strings.Join(cols, ", ") + ") VALUES " + b.PlaceholderSQL
}

// Args returns the parameter values in placeholder order.
func (b *Batch) Args() []any {
	args := make([]any, len(b.Params))
	for i, p := range b.Params {
		args[i] = p.Value
	}
	return args
}
