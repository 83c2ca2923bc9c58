// Package output renders result sets and control-plane objects as tables or JSON.
package output

import (
	"fmt"
	"strings"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// Format selects how results are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts "table" and "json", case-insensitively. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json): %w", s, neonsql.ErrInvalidConfig)
	}
}
