package parquet_file

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/danthegoodman1/csv2parquet/gologger"
	"github.com/danthegoodman1/csv2parquet/parquet_accumulator"
	"github.com/danthegoodman1/csv2parquet/table"
	"github.com/danthegoodman1/csv2parquet/utils"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/schema"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type (
	FileInfo struct {
		Path      string
		NumRows   int64
		Columns   []string
		SizeBytes int64
	}
)

var (
	logger = gologger.NewLogger()

	ErrNoSchema = errors.New("parquet footer has no schema")
)

// Single goroutine for marshalling and reading, conversion is one sequential pass
const parallelism = 1

// SizeMB is the file size in MiB
func (fi *FileInfo) SizeMB() float64 {
	return float64(fi.SizeBytes) / (1024 * 1024)
}

// WriteTable writes tbl as a snappy compressed parquet file. Rows go to a temp sibling first
// and are renamed onto path once the footer is written, so path never holds a partial file.
func WriteTable(ctx context.Context, path string, tbl *table.Table) (err error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	accumulator, err := parquet_accumulator.FromTable(tbl)
	if err != nil {
		return fmt.Errorf("error in parquet_accumulator.FromTable: %w", err)
	}
	parquetSchema, err := accumulator.GetSchemaString()
	if err != nil {
		return fmt.Errorf("error in GetSchemaString: %w", err)
	}
	logger.Debug().Strs("columns", accumulator.GetColumnNames()).Strs("types", accumulator.GetColumnTypes()).Str("schema", parquetSchema).Msg("built parquet schema")

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+utils.GenKSortedID("")+".tmp")
	fw, err := local.NewLocalFileWriter(tmpPath)
	if err != nil {
		return fmt.Errorf("error in local.NewLocalFileWriter: %w", err)
	}
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			fw.Close()
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn().Err(rmErr).Str("path", tmpPath).Msg("failed to remove temp file")
		}
	}()

	pw, err := writer.NewJSONWriter(parquetSchema, fw, parallelism)
	if err != nil {
		return fmt.Errorf("error in writer.NewJSONWriter: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	if err = accumulator.RestoreColumnNames(pw.SchemaHandler); err != nil {
		return fmt.Errorf("error in RestoreColumnNames: %w", err)
	}

	s := time.Now()
	for row := 0; row < tbl.RowCount; row++ {
		rowBytes, err := json.Marshal(rowMap(tbl, row))
		if err != nil {
			return fmt.Errorf("error in json.Marshal of row %d: %w", row, err)
		}
		if err = pw.Write(string(rowBytes)); err != nil {
			return fmt.Errorf("error in pw.Write for row %d: %w", row, err)
		}
	}
	if err = pw.WriteStop(); err != nil {
		return fmt.Errorf("error in pw.WriteStop: %w", err)
	}

	closed = true
	if err = fw.Close(); err != nil {
		return fmt.Errorf("error closing %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("error in os.Rename: %w", err)
	}

	d := time.Since(s)
	logger.Debug().Str("path", path).Int("rows", tbl.RowCount).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("wrote parquet file")
	return nil
}

// rowMap builds the JSON row for the parquet-go writer, keyed by field name. Null cells are left
// out, the writer reads missing keys as null. Non finite floats have no JSON number form and are sent as
// strings, which the writer parses back into doubles.
func rowMap(tbl *table.Table, row int) map[string]any {
	m := make(map[string]any, len(tbl.Columns))
	for i, v := range tbl.Row(row) {
		if v == nil {
			continue
		}
		if f, isFloat := v.(float64); isFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = strconv.FormatFloat(f, 'g', -1, 64)
		}
		m[parquet_accumulator.FieldName(i)] = v
	}
	return m
}

// Inspect re-opens a parquet file and reads its footer
func Inspect(path string) (*FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error in os.Stat: %w", err)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("error in local.NewLocalFileReader: %w", err)
	}
	defer fr.Close()

	pr, err := openReader(fr)
	if err != nil {
		return nil, fmt.Errorf("error in openReader: %w", err)
	}
	defer pr.ReadStop()

	return &FileInfo{
		Path:      path,
		NumRows:   pr.GetNumRows(),
		Columns:   columnNames(pr),
		SizeBytes: st.Size(),
	}, nil
}

// ReadRows reads every row back keyed by column name, nulls as nil
func ReadRows(path string) ([]map[string]any, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("error in local.NewLocalFileReader: %w", err)
	}
	defer fr.Close()

	pr, err := openReader(fr)
	if err != nil {
		return nil, fmt.Errorf("error in openReader: %w", err)
	}
	defer pr.ReadStop()

	cols := columnNames(pr)
	rows, err := pr.ReadByNumber(int(pr.GetNumRows()))
	if err != nil {
		return nil, fmt.Errorf("error in pr.ReadByNumber: %w", err)
	}

	// Struct -> Map, fields follow the schema order
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		rowMap := make(map[string]any, len(cols))
		v := reflect.ValueOf(row)
		for i := 0; i < v.NumField() && i < len(cols); i++ {
			field := v.Field(i)
			if field.Kind() == reflect.Ptr {
				if field.IsNil() {
					rowMap[cols[i]] = nil
					continue
				}
				field = field.Elem()
			}
			rowMap[cols[i]] = field.Interface()
		}
		out = append(out, rowMap)
	}
	return out, nil
}

// openReader does what reader.NewParquetReader does for a nil schema, except that leaves get
// the positional field names written by WriteTable instead of names derived from the footer.
// Footer names that map to the same Go identifier, like Year and year, read back as
// separate fields. The footer names stay available as external names.
func openReader(fr source.ParquetFile) (*reader.ParquetReader, error) {
	pr := &reader.ParquetReader{
		NP:            parallelism,
		PFile:         fr,
		ColumnBuffers: make(map[string]*reader.ColumnBufferType),
	}
	if err := pr.ReadFooter(); err != nil {
		return nil, fmt.Errorf("error in pr.ReadFooter: %w", err)
	}
	if len(pr.Footer.Schema) == 0 {
		return nil, ErrNoSchema
	}

	elements := make([]*parquet.SchemaElement, len(pr.Footer.Schema))
	for i, el := range pr.Footer.Schema {
		renamed := *el
		if i > 0 {
			renamed.Name = parquet_accumulator.FieldName(i - 1)
		}
		elements[i] = &renamed
	}
	pr.SchemaHandler = schema.NewSchemaHandlerFromSchemaList(elements)
	for i, el := range pr.Footer.Schema {
		pr.SchemaHandler.Infos[i].ExName = el.GetName()
	}
	pr.SchemaHandler.CreateInExMap()
	pr.RenameSchema()

	for i, el := range pr.SchemaHandler.SchemaElements {
		if el.GetNumChildren() > 0 {
			continue
		}
		pathStr := pr.SchemaHandler.IndexMap[int32(i)]
		cb, err := reader.NewColumnBuffer(fr, pr.Footer, pr.SchemaHandler, pathStr)
		if err != nil {
			return nil, fmt.Errorf("error in reader.NewColumnBuffer for %s: %w", pr.SchemaHandler.GetExName(i), err)
		}
		pr.ColumnBuffers[pathStr] = cb
	}
	return pr, nil
}

// columnNames returns the on disk leaf names in schema order
func columnNames(pr *reader.ParquetReader) []string {
	var cols []string
	// element 0 is the root
	for i := 1; i < len(pr.SchemaHandler.Infos); i++ {
		cols = append(cols, pr.SchemaHandler.GetExName(i))
	}
	return cols
}
