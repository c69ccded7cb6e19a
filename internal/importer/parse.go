package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is the encoding of an import file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// Batch-level failures. They are always returned wrapped in a *ParseError
// by ParseFile.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file contains no data")
	ErrNoSheets          = errors.New("workbook has no sheets")
)

// ParseError reports a file that could not be read at all. No rows are
// returned alongside it.
type ParseError struct {
	Format Format
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s file: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s file: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DetectFormat picks the format from a file name extension.
func DetectFormat(fileName string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")); ext {
	case "csv", "txt":
		return FormatCSV, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "xlsx", "xlsm":
		return FormatXLSX, nil
	default:
		if ext == "" {
			ext = "(none)"
		}
		return "", &ParseError{Format: Format(ext), Err: ErrUnsupportedFormat}
	}
}

// ParseFile reads every data row of an import file. The first non-empty
// record is the header; blank records are skipped.
func ParseFile(r io.Reader, f Format) ([]Row, error) {
	var (
		rows []Row
		err  error
	)
	switch f {
	case FormatCSV, FormatTSV:
		rows, err = parseDelimited(r, f)
	case FormatXLSX:
		rows, err = parseWorkbook(r)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, &ParseError{Format: f, Err: err}
	}
	return rows, nil
}

func parseDelimited(r io.Reader, f Format) ([]Row, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, err
	}

	delim := '\t'
	if f == FormatCSV {
		head, _ := br.Peek(4096)
		delim = sniffDelimiter(head)
	}

	cr := csv.NewReader(newUTF8Sanitizer(br))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		header []string
		rows   []Row
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &ParseError{Format: f, Line: csvErr.Line, Err: csvErr.Err}
			}
			return nil, err
		}
		if blankRecord(record) {
			continue
		}
		line, _ := cr.FieldPos(0)
		if header == nil {
			header = normalizeHeader(record)
			continue
		}
		rows = append(rows, NewRow(line, header, record))
	}

	if header == nil {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func parseWorkbook(r io.Reader) ([]Row, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	records, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var (
		header []string
		rows   []Row
	)
	for i, record := range records {
		if blankRecord(record) {
			continue
		}
		if header == nil {
			header = normalizeHeader(record)
			continue
		}
		rows = append(rows, NewRow(i+1, header, record))
	}

	if header == nil {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

// sniffDelimiter counts candidate separators outside quotes on the first
// line and returns the most frequent, defaulting to a comma.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	counts := map[rune]int{}
	inQuotes := false
	for _, c := range string(head) {
		switch c {
		case '"':
			inQuotes = !inQuotes
		case ',', ';', '\t':
			if !inQuotes {
				counts[c]++
			}
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if CleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader cleans header cells, names blank ones __EMPTY and
// suffixes repeats with _1, _2 so every column name is unique.
func normalizeHeader(record []string) []string {
	header := make([]string, len(record))
	seen := make(map[string]int, len(record))
	for i, cell := range record {
		name := CleanCell(cell)
		if name == "" {
			name = "__EMPTY"
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 0
		}
		header[i] = name
	}
	return header
}
