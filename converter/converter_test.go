package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danthegoodman1/csv2parquet/parquet_file"
	"github.com/google/go-cmp/cmp"
)

// setupRoot creates <root>/data/<SourceFile> with the given contents
func setupRoot(t *testing.T, csv string) Paths {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, DataDir), 0o755); err != nil {
		t.Fatal(err)
	}
	paths, err := ResolvePaths(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.Source, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	return paths
}

func winnersCSV(rows int, nullTextEvery int) string {
	var b strings.Builder
	b.WriteString("year,text\n")
	for i := 0; i < rows; i++ {
		text := fmt.Sprintf("\"Race %d, won by driver %d\"", i, i%7)
		if nullTextEvery > 0 && i%nullTextEvery == 0 {
			text = ""
		}
		fmt.Fprintf(&b, "%d,%s\n", 1950+i%11, text)
	}
	return b.String()
}

func assertInOrder(t *testing.T, out string, parts ...string) {
	t.Helper()
	pos := 0
	for _, part := range parts {
		i := strings.Index(out[pos:], part)
		if i < 0 {
			t.Fatalf("expected %q after offset %d in output:\n%s", part, pos, out)
		}
		pos += i + len(part)
	}
}

func TestConvert(t *testing.T) {
	paths := setupRoot(t, winnersCSV(50, 0))
	var out bytes.Buffer

	dest, err := Convert(context.Background(), paths, &out)
	if err != nil {
		t.Fatal(err)
	}
	if dest != paths.Dest {
		t.Fatalf("expected %s, got %s", paths.Dest, dest)
	}

	st, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() <= 0 {
		t.Fatal("expected a non empty parquet file")
	}

	report := out.String()
	assertInOrder(t, report,
		"Reading CSV from: "+paths.Source+"\n",
		"\nDataset Info:\n",
		"  Records: 50\n",
		"  Columns: 2\n",
		"  Time span: 1950 - 1960\n",
		"\nColumns: year, text\n",
		"\nSaving Parquet to: "+paths.Dest+"\n",
		"✅ Conversion complete! File size: 0.00 MB\n",
	)
	if strings.Contains(report, "Warning") {
		t.Fatalf("did not expect a null warning:\n%s", report)
	}

	info, err := parquet_file.Inspect(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.NumRows != 50 {
		t.Fatalf("expected 50 rows, got %d", info.NumRows)
	}
	if diff := cmp.Diff([]string{"year", "text"}, info.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	rows, err := parquet_file.ReadRows(dest)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		if row["year"] != int64(1950+i%11) {
			t.Fatalf("row %d: got year %v", i, row["year"])
		}
		if want := fmt.Sprintf("Race %d, won by driver %d", i, i%7); row["text"] != want {
			t.Fatalf("row %d: got text %v, want %s", i, row["text"], want)
		}
	}
}

func TestConvertNullTextWarns(t *testing.T) {
	paths := setupRoot(t, winnersCSV(20, 5))
	var out bytes.Buffer

	if _, err := Convert(context.Background(), paths, &out); err != nil {
		t.Fatal(err)
	}

	assertInOrder(t, out.String(),
		"\nColumns: year, text\n",
		"\n⚠️  Warning: 4 records have null text values\n",
		"\nSaving Parquet to: ",
		"✅ Conversion complete!",
	)

	rows, err := parquet_file.ReadRows(paths.Dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(rows))
	}
	nulls := 0
	for _, row := range rows {
		if row["text"] == nil {
			nulls++
		}
	}
	if nulls != 4 {
		t.Fatalf("expected 4 null texts, got %d", nulls)
	}
}

func TestConvertMissingTextColumn(t *testing.T) {
	paths := setupRoot(t, "year,notes\n1950,a\n1951,b\n")
	var out bytes.Buffer

	_, err := Convert(context.Background(), paths, &out)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatal("expected SchemaError to wrap ErrMissingColumn")
	}
	if !strings.Contains(err.Error(), "'text' column not found in dataset!") {
		t.Fatalf("got message %q", err.Error())
	}

	if _, err := os.Stat(paths.Dest); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected no output file, stat returned %v", err)
	}
	if strings.Contains(out.String(), "Saving Parquet") {
		t.Fatalf("did not expect a save line:\n%s", out.String())
	}
	// diagnostics are still printed before the check
	assertInOrder(t, out.String(), "  Records: 2\n", "  Time span: 1950 - 1951\n", "\nColumns: year, notes\n")
}

func TestConvertMissingInput(t *testing.T) {
	root := t.TempDir()
	paths, err := ResolvePaths(root)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Convert(context.Background(), paths, &bytes.Buffer{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestConvertWithoutYear(t *testing.T) {
	paths := setupRoot(t, "text,laps\nhello,70\nworld,\n")
	var out bytes.Buffer

	if _, err := Convert(context.Background(), paths, &out); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "Time span") {
		t.Fatalf("did not expect a time span:\n%s", out.String())
	}
	assertInOrder(t, out.String(), "  Records: 2\n", "  Columns: 2\n", "\nColumns: text, laps\n")
}

func TestConvertKeepsHeaderNames(t *testing.T) {
	paths := setupRoot(t, ",year,text,Year,avg speed,pilote né\n"+
		"0,1950,Farina wins,1,146.4,Giuseppe\n"+
		"1,1951,Fangio wins,2,,Juan Manuel\n")

	if _, err := Convert(context.Background(), paths, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	names := []string{"Unnamed: 0", "year", "text", "Year", "avg speed", "pilote né"}
	info, err := parquet_file.Inspect(paths.Dest)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(names, info.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	rows, err := parquet_file.ReadRows(paths.Dest)
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{
		{"Unnamed: 0": int64(0), "year": int64(1950), "text": "Farina wins", "Year": int64(1), "avg speed": 146.4, "pilote né": "Giuseppe"},
		{"Unnamed: 0": int64(1), "year": int64(1951), "text": "Fangio wins", "Year": int64(2), "avg speed": nil, "pilote né": "Juan Manuel"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertIdempotent(t *testing.T) {
	paths := setupRoot(t, winnersCSV(30, 4))

	if _, err := Convert(context.Background(), paths, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	first, err := parquet_file.ReadRows(paths.Dest)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Convert(context.Background(), paths, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	second, err := parquet_file.ReadRows(paths.Dest)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second run changed content (-first +second):\n%s", diff)
	}
}

func TestDatasetInfoWrite(t *testing.T) {
	var out bytes.Buffer
	DatasetInfo{
		Records:     12345,
		ColumnNames: []string{"year", "text"},
		HasTimeSpan: true,
		SpanMin:     1950.5,
		SpanMax:     int64(2023),
	}.Write(&out)

	want := "\nDataset Info:\n  Records: 12,345\n  Columns: 2\n  Time span: 1950.5 - 2023\n\nColumns: year, text\n"
	if out.String() != want {
		t.Fatalf("got %q, want %q", out.String(), want)
	}
}

func TestResolvePaths(t *testing.T) {
	paths, err := ResolvePaths("/srv/f1")
	if err != nil {
		t.Fatal(err)
	}
	if paths.Source != "/srv/f1/data/f1_gp_winners_processed.csv" {
		t.Fatalf("got source %s", paths.Source)
	}
	if paths.Dest != "/srv/f1/data/f1_gp_winners.parquet" {
		t.Fatalf("got dest %s", paths.Dest)
	}

	if err := (Paths{Source: "in.txt", Dest: "out.parquet"}).Validate(); err == nil {
		t.Fatal("expected a validation error for a non csv source")
	}
	if err := (Paths{Source: "in.csv"}).Validate(); err == nil {
		t.Fatal("expected a validation error for a missing dest")
	}
}
