package converter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/danthegoodman1/csv2parquet/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type (
	// DatasetInfo is the summary printed before conversion
	DatasetInfo struct {
		Records     int
		ColumnNames []string

		// Set when the range column is numeric and has values
		HasTimeSpan bool
		SpanMin     any
		SpanMax     any
	}
)

var printer = message.NewPrinter(language.English)

func Describe(tbl *table.Table) DatasetInfo {
	info := DatasetInfo{
		Records:     tbl.RowCount,
		ColumnNames: tbl.ColumnNames(),
	}
	if col := tbl.Column(RangeColumn); col != nil {
		info.SpanMin, info.SpanMax, info.HasTimeSpan = col.NumericRange()
	}
	return info
}

func (di DatasetInfo) Write(w io.Writer) {
	fmt.Fprintf(w, "\nDataset Info:\n")
	fmt.Fprintf(w, "  Records: %s\n", printer.Sprintf("%d", di.Records))
	fmt.Fprintf(w, "  Columns: %d\n", len(di.ColumnNames))
	if di.HasTimeSpan {
		fmt.Fprintf(w, "  Time span: %s - %s\n", formatValue(di.SpanMin), formatValue(di.SpanMax))
	}
	fmt.Fprintf(w, "\nColumns: %s\n", strings.Join(di.ColumnNames, ", "))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
