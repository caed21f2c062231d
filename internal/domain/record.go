package domain

import (
	"slices"
	"sort"
)

// InputRecord holds one validated set of form values. It is immutable once
// built; accessors return copies.
type InputRecord struct {
	columns     []string
	numeric     float64
	categorical []string
}

// Table is a column-ordered batch of rows handed to a Predictor.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"data"`
}

// NewRecord validates raw against the schema and assembles an InputRecord in
// model column order. raw must contain exactly the schema's fields.
//
// Missing fields are reported before undeclared ones, and per-field
// constraint failures after both, so the first error is stable for a given
// input regardless of map iteration order.
func (s *FeatureSchema) NewRecord(raw map[string]any) (InputRecord, error) {
	columns := s.Columns()

	for _, name := range columns {
		if _, ok := raw[name]; !ok {
			return InputRecord{}, &ValidationError{Field: name, Reason: "missing"}
		}
	}

	if len(raw) != len(columns) {
		extra := make([]string, 0, len(raw)-len(columns))
		for name := range raw {
			if _, ok := s.index[name]; !ok {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		if len(extra) > 0 {
			return InputRecord{}, &ValidationError{Field: extra[0], Value: raw[extra[0]], Reason: "unknown field"}
		}
	}

	for _, name := range columns {
		if err := s.Check(name, raw[name]); err != nil {
			return InputRecord{}, err
		}
	}

	numeric, _ := toFloat(raw[s.numeric.Name])
	cats := make([]string, len(s.categorical))
	for i, f := range s.categorical {
		cats[i] = raw[f.Name].(string)
	}

	return InputRecord{
		columns:     columns,
		numeric:     numeric,
		categorical: cats,
	}, nil
}

// Columns returns the record's column names in model order.
func (r InputRecord) Columns() []string {
	return slices.Clone(r.columns)
}

// Numeric returns the numeric field value.
func (r InputRecord) Numeric() float64 {
	return r.numeric
}

// Categorical returns the categorical values in model order.
func (r InputRecord) Categorical() []string {
	return slices.Clone(r.categorical)
}

// Values returns the numeric value followed by the categorical values.
func (r InputRecord) Values() []any {
	vals := make([]any, 0, len(r.categorical)+1)
	vals = append(vals, r.numeric)
	for _, c := range r.categorical {
		vals = append(vals, c)
	}
	return vals
}

// Table wraps the record as a one-row batch.
func (r InputRecord) Table() Table {
	return Table{
		Columns: r.Columns(),
		Rows:    [][]any{r.Values()},
	}
}
