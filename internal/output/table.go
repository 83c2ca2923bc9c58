package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vvka-141/neonsql/internal/decode"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Table writes rows under headers with rounded borders.
func Table(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// ResultTable writes rs as a table. Every cell goes through decode.Cell, so
// NULL prints as an empty cell and unknown types as the decode sentinel.
func ResultTable(w io.Writer, rs *neonsql.ResultSet) error {
	rows := make([][]string, rs.Len())
	for i := range rows {
		rows[i] = decode.Strings(rs.Row(i))
	}
	return Table(w, rs.FieldNames(), rows)
}
