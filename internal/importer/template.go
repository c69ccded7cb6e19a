package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Template file details.
const (
	TemplateSheet    = "Products"
	TemplateBaseName = "albaseet_products_template"
)

type templateColumn struct {
	Header string
	Width  float64
}

var templateColumns = []templateColumn{
	{"Article", 12},
	{"Description", 35},
	{"Final Price", 12},
	{"Category", 12},
	{"Subcategory", 15},
	{"Sizes", 25},
	{"Stock", 8},
	{"Arabic Name", 30},
	{"Is New", 8},
	{"Featured", 10},
}

// Prices and stock are numbers so they land in numeric spreadsheet cells.
var templateRows = [][]any{
	{"190981", "COURT PADEL X3 / yellow", 430.00, "padel", "shoes", "40:10,41:15,42:12,43:8", 10, "كورت بادل X3 / أصفر", "true", "false"},
	{"206641", "WRIST STRAP PADEL / black", 500.00, "padel", "accessories", "One Size:20", 20, "سوار معصم بادل / أسود", "false", "false"},
	{"216447", "TECHNICAL VIPER 2.5 / no color", 14900.00, "padel", "rackets", "One Size:5", 5, "تيكنيكال فايبر 2.5", "true", "true"},
}

// TemplateHeader returns the column names of the import template.
func TemplateHeader() []string {
	header := make([]string, len(templateColumns))
	for i, c := range templateColumns {
		header[i] = c.Header
	}
	return header
}

// TemplateRows returns the example rows of the import template as Rows,
// exactly as an upload of the template would produce them.
func TemplateRows() []Row {
	header := TemplateHeader()
	rows := make([]Row, len(templateRows))
	for i, values := range templateRows {
		rows[i] = NewRow(i+2, header, cellStrings(values))
	}
	return rows
}

// WriteTemplate writes the import template in the given format.
func WriteTemplate(w io.Writer, f Format) error {
	switch f {
	case FormatXLSX:
		return writeTemplateXLSX(w)
	case FormatCSV, FormatTSV:
		return writeTemplateDelimited(w, f)
	default:
		return fmt.Errorf("template: %w: %s", ErrUnsupportedFormat, f)
	}
}

// TemplateFileName returns the download name for a template format.
func TemplateFileName(f Format) string {
	return TemplateBaseName + "." + string(f)
}

func writeTemplateXLSX(w io.Writer) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", TemplateSheet); err != nil {
		return fmt.Errorf("template: rename sheet: %w", err)
	}

	for i, col := range templateColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("template: column name: %w", err)
		}
		if err := wb.SetColWidth(TemplateSheet, name, name, col.Width); err != nil {
			return fmt.Errorf("template: column width: %w", err)
		}
	}

	header := make([]any, len(templateColumns))
	for i, c := range templateColumns {
		header[i] = c.Header
	}
	if err := wb.SetSheetRow(TemplateSheet, "A1", &header); err != nil {
		return fmt.Errorf("template: header: %w", err)
	}
	for i, values := range templateRows {
		row := values
		if err := wb.SetSheetRow(TemplateSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("template: row %d: %w", i+2, err)
		}
	}

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("template: write: %w", err)
	}
	return nil
}

func writeTemplateDelimited(w io.Writer, f Format) error {
	cw := csv.NewWriter(w)
	if f == FormatTSV {
		cw.Comma = '\t'
	}
	if err := cw.Write(TemplateHeader()); err != nil {
		return fmt.Errorf("template: header: %w", err)
	}
	for _, values := range templateRows {
		if err := cw.Write(cellStrings(values)); err != nil {
			return fmt.Errorf("template: row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellStrings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = stringify(v)
	}
	return out
}
