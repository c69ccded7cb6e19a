package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/albaseet/catalog/internal/catalog"
)

// Row is one record read from an import file. Columns keeps the header order
// so alias lookup is deterministic; Values is keyed by column name.
type Row struct {
	Line    int
	Columns []string
	Values  map[string]any
}

// NewRow builds a row from a header and its cells. Missing trailing cells
// are treated as empty.
func NewRow(line int, header, cells []string) Row {
	r := Row{
		Line:    line,
		Columns: header,
		Values:  make(map[string]any, len(header)),
	}
	for i, col := range header {
		if i < len(cells) {
			r.Values[col] = cells[i]
		}
	}
	return r
}

// Value returns the cleaned text of a cell, or "" when absent.
func (r Row) Value(col string) string {
	v, ok := r.Values[col]
	if !ok || v == nil {
		return ""
	}
	return CleanCell(stringify(v))
}

// IsBlank reports whether every cell of the row is empty.
func (r Row) IsBlank() bool {
	for _, col := range r.Columns {
		if r.Value(col) != "" {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// CleanCell trims a cell and strips spreadsheet artifacts: the ="..."
// wrapper Excel uses to keep leading zeros, a bare leading '=', and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// Rejection explains why a row was left out of the accepted set.
// RowNumber is the 1-based line in the source file, header included.
type Rejection struct {
	RowNumber int      `json:"rowNumber"`
	Reasons   []string `json:"reasons"`
}

// Result is the outcome of normalizing a batch of rows.
type Result struct {
	Accepted []catalog.Draft `json:"accepted"`
	Rejected []Rejection     `json:"rejected"`
	// Skipped counts blank or structural rows dropped without a rejection.
	Skipped int `json:"skipped"`
}
