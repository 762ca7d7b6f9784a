package parquet_accumulator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danthegoodman1/csv2parquet/table"
	"github.com/goccy/go-json"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/schema"
)

type (
	ParquetSchemaAccumulator struct {
		schema ParquetSchema
		// column names as they go on disk, in field order
		columns []string
	}

	ParquetSchema struct {
		TagStructs SchemaTag        `json:"-,omitempty"`
		Fields     []*ParquetSchema `json:",omitempty"`
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string         `json:"name,omitempty"`
		Type           string         `json:"type,omitempty"`
		ConvertedType  string         `json:"convertedtype,omitempty"`
		RepetitionType RepetitionType `json:"repetitiontype,omitempty"`
		Encoding       string         `json:"encoding,omitempty"`
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"

	ErrColumnExists      = errors.New("column already exists")
	ErrInvalidColumnName = errors.New("invalid column name")
	ErrSchemaMismatch    = errors.New("schema handler does not match accumulated columns")
)

func NewParquetAccumulator() ParquetSchemaAccumulator {
	return ParquetSchemaAccumulator{
		schema: ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "parquet_go_root",
				RepetitionType: Required,
			},
		},
	}
}

// FieldName is the name the i-th column carries inside parquet-go: in the JSON schema tag,
// as the JSON row key and as the struct field when reading back. parquet-go derives Go
// identifiers from names, so `Year` and `year` or `a,b` can't be used there directly.
func FieldName(i int) string {
	return "C" + strconv.Itoa(i)
}

// FromTable accumulates every column of tbl in order
func FromTable(tbl *table.Table) (ParquetSchemaAccumulator, error) {
	pa := NewParquetAccumulator()
	for _, col := range tbl.Columns {
		if err := pa.WriteColumn(col.Name, col.Type); err != nil {
			return pa, fmt.Errorf("error in WriteColumn for %q: %w", col.Name, err)
		}
	}
	return pa, nil
}

// WriteColumn appends an optional leaf for the column under its positional FieldName. The
// column name itself is put back with RestoreColumnNames once the writer exists.
func (pa *ParquetSchemaAccumulator) WriteColumn(name string, colType table.ColumnType) error {
	// parquet-go joins schema paths with this byte
	if name == "" || strings.Contains(name, common.PAR_GO_PATH_DELIMITER) {
		return fmt.Errorf("%q: %w", name, ErrInvalidColumnName)
	}
	if pa.columnExists(name) {
		return fmt.Errorf("%q: %w", name, ErrColumnExists)
	}
	pa.schema.Fields = append(pa.schema.Fields, pa.getParquetSchema(FieldName(len(pa.columns)), colType))
	pa.columns = append(pa.columns, name)
	return nil
}

// RestoreColumnNames sets the external name of every leaf of sh to its column name, so the
// footer and the column chunk paths carry the original names when the writer renames the schema
// on WriteStop. sh must be built from this accumulator's schema string.
func (pa *ParquetSchemaAccumulator) RestoreColumnNames(sh *schema.SchemaHandler) error {
	// element 0 is the root
	if len(sh.Infos) != len(pa.columns)+1 {
		return fmt.Errorf("%d schema elements for %d columns: %w", len(sh.Infos), len(pa.columns), ErrSchemaMismatch)
	}
	for i, name := range pa.columns {
		if sh.Infos[i+1].InName != common.StringToVariableName(FieldName(i)) {
			return fmt.Errorf("element %d is %q: %w", i+1, sh.Infos[i+1].InName, ErrSchemaMismatch)
		}
		sh.Infos[i+1].ExName = name
	}
	sh.CreateInExMap()
	return nil
}

// getParquetSchema returns the leaf with its Type, ConvertedType and Encoding
func (pa *ParquetSchemaAccumulator) getParquetSchema(name string, colType table.ColumnType) *ParquetSchema {
	schema := &ParquetSchema{
		TagStructs: SchemaTag{
			Name:           name,
			RepetitionType: Optional,
		},
	}

	switch colType {
	case table.Integer:
		schema.TagStructs.Type = "INT64"
	case table.Float:
		schema.TagStructs.Type = "DOUBLE"
	default:
		schema.TagStructs.Type = "BYTE_ARRAY"
		schema.TagStructs.ConvertedType = "UTF8"
		schema.TagStructs.Encoding = "PLAIN_DICTIONARY"
	}

	return schema
}

func (pa *ParquetSchemaAccumulator) columnExists(name string) (exists bool) {
	for _, col := range pa.columns {
		if col == name {
			return true
		}
	}
	return
}

// GetColumnNames returns the column names in field order
func (pa *ParquetSchemaAccumulator) GetColumnNames() []string {
	return append([]string(nil), pa.columns...)
}

func (pa *ParquetSchemaAccumulator) GetFieldNames() []string {
	var fields []string
	for _, field := range pa.schema.Fields {
		fields = append(fields, field.TagStructs.Name)
	}
	return fields
}

func (ps *ParquetSchema) GetType() string {
	switch ps.TagStructs.Type {
	case "BYTE_ARRAY":
		return "string"
	case "DOUBLE":
		return "float"
	case "INT64":
		return "integer"
	default:
		return "unknown"
	}
}

// GetColumnTypes returns the types of columns in the same order, `string`, `float` or `integer`
func (pa *ParquetSchemaAccumulator) GetColumnTypes() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.GetType())
	}
	return cols
}

// ToParquetJSONSchema recursively converts
func (ps *ParquetSchema) ToParquetJSONSchema() *ParquetJSONSchema {
	var tagArr []string
	if ps.TagStructs.Type != "" {
		tagArr = append(tagArr, "type="+ps.TagStructs.Type)
	}
	if ps.TagStructs.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+ps.TagStructs.ConvertedType)
	}
	if ps.TagStructs.Encoding != "" {
		tagArr = append(tagArr, "encoding="+ps.TagStructs.Encoding)
	}
	if ps.TagStructs.Name != "" {
		tagArr = append(tagArr, "name="+ps.TagStructs.Name)
	}
	if string(ps.TagStructs.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(ps.TagStructs.RepetitionType))
	}
	var fields []*ParquetJSONSchema
	for _, field := range ps.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	return &ParquetJSONSchema{
		Tag:    strings.Join(tagArr, ", "),
		Fields: fields,
	}
}

// GetSchemaString returns the JSON formatted schema string
func (pa *ParquetSchemaAccumulator) GetSchemaString() (string, error) {
	b, err := json.Marshal(pa.schema.ToParquetJSONSchema())
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}
