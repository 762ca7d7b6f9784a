package table

import (
	"errors"
	"fmt"
)

type (
	ColumnType int

	Column struct {
		Name string
		Type ColumnType

		// Exactly one of these is populated, matching Type. Slots where Valid is false hold
		// the zero value.
		Ints    []int64
		Floats  []float64
		Strings []string

		// Valid[i] is false when row i is null
		Valid []bool
	}

	// Table is an ordered set of columns sharing one row count. Row order is source order.
	Table struct {
		Columns  []*Column
		RowCount int
	}
)

const (
	Text ColumnType = iota
	Integer
	Float
)

var (
	ErrRowCountMismatch = errors.New("column row count does not match table row count")
)

func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	default:
		return "text"
	}
}

func (c *Column) Len() int {
	return len(c.Valid)
}

func (c *Column) IsNull(row int) bool {
	return !c.Valid[row]
}

// Value returns the row's value as int64, float64 or string, or nil when null.
func (c *Column) Value(row int) any {
	if !c.Valid[row] {
		return nil
	}
	switch c.Type {
	case Integer:
		return c.Ints[row]
	case Float:
		return c.Floats[row]
	default:
		return c.Strings[row]
	}
}

func (c *Column) NullCount() (nulls int) {
	for _, ok := range c.Valid {
		if !ok {
			nulls++
		}
	}
	return
}

// NumericRange returns the min and max non-null values of a numeric column. ok is false for
// text columns and for columns without any values.
func (c *Column) NumericRange() (min, max any, ok bool) {
	switch c.Type {
	case Integer:
		lo, hi, found := rangeOf(c.Ints, c.Valid)
		if !found {
			return nil, nil, false
		}
		return lo, hi, true
	case Float:
		lo, hi, found := rangeOf(c.Floats, c.Valid)
		if !found {
			return nil, nil, false
		}
		return lo, hi, true
	default:
		return nil, nil, false
	}
}

func rangeOf[T int64 | float64](vals []T, valid []bool) (lo, hi T, found bool) {
	for i, v := range vals {
		if !valid[i] {
			continue
		}
		// skip NaN
		if v != v {
			continue
		}
		if !found {
			lo, hi, found = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return
}

func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Column returns the first column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

func (t *Table) HasColumn(name string) bool {
	return t.Column(name) != nil
}

// Row returns the row's values in column order, nulls as nil
func (t *Table) Row(row int) []any {
	vals := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		vals[i] = col.Value(row)
	}
	return vals
}

// Validate checks that every column carries exactly RowCount entries
func (t *Table) Validate() error {
	for _, col := range t.Columns {
		n := col.Len()
		switch col.Type {
		case Integer:
			if len(col.Ints) != n {
				return fmt.Errorf("column %q has %d values for %d slots: %w", col.Name, len(col.Ints), n, ErrRowCountMismatch)
			}
		case Float:
			if len(col.Floats) != n {
				return fmt.Errorf("column %q has %d values for %d slots: %w", col.Name, len(col.Floats), n, ErrRowCountMismatch)
			}
		default:
			if len(col.Strings) != n {
				return fmt.Errorf("column %q has %d values for %d slots: %w", col.Name, len(col.Strings), n, ErrRowCountMismatch)
			}
		}
		if n != t.RowCount {
			return fmt.Errorf("column %q has %d rows, table has %d: %w", col.Name, n, t.RowCount, ErrRowCountMismatch)
		}
	}
	return nil
}
