package dataset

import (
	"fmt"
	"math"

	"edakit/internal/errors"
)

// Kind is the value type held by a column
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a named, ordered sequence of values. Numeric columns mark
// missing values with NaN, categorical columns with the empty string.
type Column struct {
	Name   string
	kind   Kind
	floats []float64
	labels []string
}

// NewNumericColumn creates a numeric column; the slice is not copied
func NewNumericColumn(name string, values []float64) *Column {
	return &Column{Name: name, kind: Numeric, floats: values}
}

// NewCategoricalColumn creates a categorical column; the slice is not copied
func NewCategoricalColumn(name string, values []string) *Column {
	return &Column{Name: name, kind: Categorical, labels: values}
}

// Kind returns the column's value type
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of rows, missing included
func (c *Column) Len() int {
	if c.kind == Numeric {
		return len(c.floats)
	}
	return len(c.labels)
}

// Floats returns the raw numeric values (NaN = missing). Nil for categorical columns.
func (c *Column) Floats() []float64 { return c.floats }

// Labels returns the raw categorical values ("" = missing). Nil for numeric columns.
func (c *Column) Labels() []string { return c.labels }

// IsMissing reports whether row i holds no observation
func (c *Column) IsMissing(i int) bool {
	if c.kind == Numeric {
		return math.IsNaN(c.floats[i])
	}
	return c.labels[i] == ""
}

// Missing returns the number of missing rows
func (c *Column) Missing() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Observed returns the numeric values with missing entries removed, in row order.
func (c *Column) Observed() []float64 {
	out := make([]float64, 0, len(c.floats))
	for _, v := range c.floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// String formats row i for display
func (c *Column) String(i int) string {
	if c.kind == Categorical {
		return c.labels[i]
	}
	if math.IsNaN(c.floats[i]) {
		return "NaN"
	}
	return fmt.Sprintf("%g", c.floats[i])
}

// Table is an ordered collection of uniquely named, row-aligned columns
// with optional row labels.
type Table struct {
	Index   []string
	columns []*Column
	byName  map[string]int
}

// NewTable builds a table from columns, rejecting duplicate names
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	for _, c := range cols {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustTable is NewTable for fixtures; it panics on error
func MustTable(cols ...*Column) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// AddColumn appends a column. Columns need not share a length: test
// wrappers routinely take independent samples of different sizes.
func (t *Table) AddColumn(c *Column) error {
	if c == nil {
		return errors.InvalidInput("nil column")
	}
	if t.byName == nil {
		t.byName = make(map[string]int)
	}
	if _, dup := t.byName[c.Name]; dup {
		return errors.Newf(errors.CodeInvalidInput, "duplicate column label %q", c.Name)
	}
	t.byName[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// Column looks a column up by name
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.byName[name]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("column %q", name))
	}
	return t.columns[i], nil
}

// Numeric returns the raw values of a numeric column
func (t *Table) Numeric(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.kind != Numeric {
		return nil, errors.Newf(errors.CodeInvalidInput, "column %q is %s, not numeric", name, c.kind)
	}
	return c.floats, nil
}

// Select returns a new table holding the named columns in the given order.
// The row index is carried over.
func (t *Table) Select(names ...string) (*Table, error) {
	out := &Table{Index: t.Index, byName: make(map[string]int, len(names))}
	for _, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if err := out.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Columns returns the columns in order
func (t *Table) Columns() []*Column { return t.columns }

// Names returns the column labels in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Width returns the number of columns
func (t *Table) Width() int { return len(t.columns) }

// Len returns the longest column length
func (t *Table) Len() int {
	n := len(t.Index)
	for _, c := range t.columns {
		if c.Len() > n {
			n = c.Len()
		}
	}
	return n
}

// RowLabel returns the index label of row i, or its position when the
// table has no index.
func (t *Table) RowLabel(i int) string {
	if i < len(t.Index) {
		return t.Index[i]
	}
	return fmt.Sprintf("%d", i)
}
