package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/vvka-141/neonsql/internal/decode"
	"github.com/vvka-141/neonsql/internal/scalar"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// ResultJSON writes rs as a JSON array of objects whose keys follow column
// order. SQL NULL is null; booleans and numbers are JSON literals; everything
// else is the decoded string.
func ResultJSON(w io.Writer, rs *neonsql.ResultSet) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < rs.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  {")
		row := rs.Row(i)
		for c := 0; c < row.NumColumns(); c++ {
			if c > 0 {
				buf.WriteString(", ")
			}
			key, err := json.Marshal(rs.Fields[c].Name)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteString(": ")
			if err := writeJSONValue(&buf, row, c); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	if rs.Len() > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSONValue(buf *bytes.Buffer, row neonsql.Row, i int) error {
	text, valid := decode.NullableCell(row, i)
	if !valid {
		buf.WriteString("null")
		return nil
	}

	switch scalar.ParseKind(row.TypeName(i)) {
	case scalar.Boolean, scalar.SmallInt, scalar.Integer, scalar.BigInt:
		if text != decode.CannotParse {
			buf.WriteString(text)
			return nil
		}
	case scalar.Float4, scalar.Float8:
		if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			buf.WriteString(text)
			return nil
		}
	}

	quoted, err := json.Marshal(text)
	if err != nil {
		return err
	}
	buf.Write(quoted)
	return nil
}

// JSONTable writes a slice of JSON objects as a table. The header is the
// sorted key set of the first object; strings are shown unquoted and other
// values in their JSON encoding. Keys missing from a later object print empty.
func JSONTable(w io.Writer, objects []map[string]any) error {
	if len(objects) == 0 {
		return nil
	}

	headers := make([]string, 0, len(objects[0]))
	for k := range objects[0] {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(headers))
		for j, h := range headers {
			v, ok := obj[h]
			if !ok {
				continue
			}
			s, err := jsonCell(v)
			if err != nil {
				return fmt.Errorf("object %d key %q: %w", i, h, err)
			}
			row[j] = s
		}
		rows[i] = row
	}
	return Table(w, headers, rows)
}

func jsonCell(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
