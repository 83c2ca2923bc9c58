// Package decode renders untyped result rows as display strings.
//
// Decoding is best effort: a column whose runtime type is not one of the
// scalar kinds yields CannotParse instead of failing the row.
package decode

import (
	"strconv"
	"time"

	"github.com/vvka-141/neonsql/internal/scalar"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// CannotParse is returned for columns whose runtime type has no formatter.
const CannotParse = "CANNOT PARSE"

// TimestampLayout renders timestamps as an absolute UTC instant.
const TimestampLayout = "2006-01-02 15:04:05.999999999 UTC"

// formatter renders a non-nil value. ok is false when the value's Go type
// does not match the column kind.
type formatter func(v any) (s string, ok bool)

var formatters = [...]formatter{
	scalar.Unsupported: formatUnsupported,
	scalar.Text:        formatText,
	scalar.Boolean:     formatBool,
	scalar.SmallInt:    formatInt,
	scalar.Integer:     formatInt,
	scalar.BigInt:      formatInt,
	scalar.Float4:      formatFloat,
	scalar.Float8:      formatFloat,
	scalar.Timestamp:   formatTimestamp,
}

// Compile-time check that every scalar kind has a formatter slot.
var _ = [1]struct{}{}[len(formatters)-int(scalar.NumKinds)]

// Cell returns the display string of column i. SQL NULL becomes "".
// i must be within the row's column count.
func Cell(row neonsql.Row, i int) string {
	s, _ := NullableCell(row, i)
	return s
}

// NullableCell is like Cell but reports SQL NULL separately: valid is false
// and s is "" when the field is NULL.
func NullableCell(row neonsql.Row, i int) (s string, valid bool) {
	kind := scalar.ParseKind(row.TypeName(i))
	if kind == scalar.Unsupported {
		return CannotParse, true
	}

	v := row.Value(i)
	if v == nil {
		return "", false
	}

	s, ok := formatters[kind](v)
	if !ok {
		return CannotParse, true
	}
	return s, true
}

// Strings decodes every column of row.
func Strings(row neonsql.Row) []string {
	out := make([]string, row.NumColumns())
	for i := range out {
		out[i] = Cell(row, i)
	}
	return out
}

func formatUnsupported(any) (string, bool) {
	return CannotParse, true
}

func formatText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	}
	return "", false
}

func formatBool(v any) (string, bool) {
	b, ok := v.(bool)
	if !ok {
		return "", false
	}
	return strconv.FormatBool(b), true
}

func formatInt(v any) (string, bool) {
	switch n := v.(type) {
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case int:
		return strconv.Itoa(n), true
	}
	return "", false
}

func formatFloat(v any) (string, bool) {
	switch f := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(f), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func formatTimestamp(v any) (string, bool) {
	t, ok := v.(time.Time)
	if !ok {
		return "", false
	}
	return t.UTC().Format(TimestampLayout), true
}
