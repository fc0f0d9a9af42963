package schema

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Table is an introspected table.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
	Fields  []Field
	index   map[string]int
}

// NewTable builds a table from columns in ordinal order.
func NewTable(schemaName, name string, cols []Column) *Table {
	t := &Table{
		Schema:  schemaName,
		Name:    name,
		Columns: cols,
		Fields:  make([]Field, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		t.Fields[i] = NewField(c)
		t.index[c.Name] = i
	}
	return t
}

// Field returns the field of column name.
func (t *Table) Field(name string) (Field, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.Fields[i], true
}

// FieldError is a validation failure of one column.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// ValidationErrors lists field failures in column order, unknown columns last.
type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Err returns v as an error, or nil when v is empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Field returns the error recorded for name.
func (v ValidationErrors) Field(name string) error {
	for _, e := range v {
		if e.Field == name {
			return e.Err
		}
	}
	return nil
}

// Validate checks a row of values. Keys must be column names. A column that is
// absent, not nullable and has no default is required. Nil and nil pointers
// are nulls. Returns nil when the row is valid.
func (t *Table) Validate(values map[string]any) ValidationErrors {
	var errs ValidationErrors
	for _, f := range t.Fields {
		v, present := values[f.Name()]
		if !present {
			if !f.Nullable() && !f.HasDefault() {
				errs = append(errs, &FieldError{Field: f.Name(), Err: ErrRequired})
			}
			continue
		}

		v = indirect(v)
		if v == nil {
			if !f.Nullable() {
				errs = append(errs, &FieldError{Field: f.Name(), Err: ErrNull})
			}
			continue
		}
		if err := f.Validate(v); err != nil {
			errs = append(errs, &FieldError{Field: f.Name(), Err: err})
		}
	}

	for _, k := range slices.Sorted(maps.Keys(values)) {
		if _, ok := t.index[k]; !ok {
			errs = append(errs, &FieldError{
				Field: k,
				Err:   fmt.Errorf("%w: %s.%s has no column %q", ErrUnknownColumn, t.Schema, t.Name, k),
			})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateColumn checks a single value against column name.
func (t *Table) ValidateColumn(name string, v any) error {
	f, ok := t.Field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	v = indirect(v)
	if v == nil {
		if f.Nullable() {
			return nil
		}
		return ErrNull
	}
	return f.Validate(v)
}

func indirect(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

var _ error = ValidationErrors(nil)
