package converter

import (
	"fmt"

	"github.com/danthegoodman1/csv2parquet/utils"
)

var (
	ErrMissingColumn = utils.PermError("required column missing")
	ErrRowCountDrift = utils.PermError("row count changed between source and output")
)

// SchemaError is a required column absent from the parsed table
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("'%s' column not found in dataset!", e.Column)
}

func (e *SchemaError) Unwrap() error {
	return ErrMissingColumn
}

func (e *SchemaError) IsPermanent() bool {
	return true
}
