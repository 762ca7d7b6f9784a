package csv_loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/danthegoodman1/csv2parquet/gologger"
	"github.com/danthegoodman1/csv2parquet/table"
)

type (
	// ParseError is a malformed row in the source file
	ParseError struct {
		Line int
		Msg  string
	}
)

var (
	logger = gologger.NewLogger()

	ErrNoColumns = errors.New("no columns to parse from file")

	// nullTokens are cell values read as missing
	nullTokens = map[string]struct{}{
		"":         {},
		"#N/A":     {},
		"#N/A N/A": {},
		"#NA":      {},
		"-1.#IND":  {},
		"-1.#QNAN": {},
		"-NaN":     {},
		"-nan":     {},
		"1.#IND":   {},
		"1.#QNAN":  {},
		"<NA>":     {},
		"N/A":      {},
		"NA":       {},
		"NULL":     {},
		"NaN":      {},
		"None":     {},
		"n/a":      {},
		"nan":      {},
		"null":     {},
	}
)

const utf8BOM = "\uFEFF"

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// IsNull reports whether a raw cell is treated as missing
func IsNull(cell string) bool {
	_, ok := nullTokens[cell]
	return ok
}

// Load reads a header-prefixed comma separated file into a Table
func Load(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.Open: %w", err)
	}
	defer f.Close()

	tbl, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return tbl, nil
}

// Parse reads a header row followed by data rows and detects a type for every column
func Parse(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	// a bare quote inside an unquoted field is kept as text
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	names := HeaderNames(header)

	cells := make([][]string, len(names))
	rowCount := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error in csv Read: %w", err)
		}
		if len(rec) > len(names) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, saw %d", len(names), len(rec)),
			}
		}
		for i := range names {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			cells[i] = append(cells[i], cell)
		}
		rowCount++
	}

	tbl := &table.Table{RowCount: rowCount}
	for i, name := range names {
		col := buildColumn(name, cells[i])
		logger.Debug().Str("column", name).Str("type", col.Type.String()).Int("nulls", col.NullCount()).Msg("detected column")
		tbl.Columns = append(tbl.Columns, col)
	}

	if err := tbl.Validate(); err != nil {
		return nil, fmt.Errorf("error in tbl.Validate: %w", err)
	}
	return tbl, nil
}

// HeaderNames names blank header cells "Unnamed: <index>" and suffixes repeated names with
// ".1", ".2", ... in order of appearance.
func HeaderNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffixes := make(map[string]int)
	for i, h := range header {
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		if used[name] {
			n := suffixes[h]
			for {
				n++
				name = fmt.Sprintf("%s.%d", h, n)
				if !used[name] {
					break
				}
			}
			suffixes[h] = n
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// DetectType picks Integer if every non-null cell is a base 10 int64, Float if every non-null
// cell is a float64, otherwise Text. A column without any values is Text.
func DetectType(cells []string) table.ColumnType {
	colType := table.Integer
	seenValue := false
	for _, cell := range cells {
		if IsNull(cell) {
			continue
		}
		seenValue = true
		v := strings.TrimSpace(cell)
		if colType == table.Integer {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			colType = table.Float
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return table.Text
		}
	}
	if !seenValue {
		return table.Text
	}
	return colType
}

func buildColumn(name string, cells []string) *table.Column {
	col := &table.Column{
		Name:  name,
		Type:  DetectType(cells),
		Valid: make([]bool, len(cells)),
	}
	switch col.Type {
	case table.Integer:
		col.Ints = make([]int64, len(cells))
	case table.Float:
		col.Floats = make([]float64, len(cells))
	default:
		col.Strings = make([]string, len(cells))
	}

	for i, cell := range cells {
		if IsNull(cell) {
			continue
		}
		col.Valid[i] = true
		switch col.Type {
		case table.Integer:
			// DetectType already proved these parse
			col.Ints[i], _ = strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
		case table.Float:
			col.Floats[i], _ = strconv.ParseFloat(strings.TrimSpace(cell), 64)
		default:
			col.Strings[i] = cell
		}
	}
	return col
}
