package artifact

import (
	"errors"
	"fmt"
	"slices"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
)

// Encoding describes how a row is turned into a feature vector: the numeric
// column is standardized and each categorical column is one-hot encoded over
// its vocabulary. Categories outside the vocabulary encode as all zeros.
type Encoding struct {
	Numeric     NumericScaler        `json:"numeric" yaml:"numeric"`
	Categorical []CategoryVocabulary `json:"categorical" yaml:"categorical"`
}

// NumericScaler standardizes the numeric column as (v - Mean) / Scale.
type NumericScaler struct {
	Column string  `json:"column" yaml:"column"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Scale  float64 `json:"scale" yaml:"scale"`
}

// CategoryVocabulary lists the categories seen for one column during fitting.
type CategoryVocabulary struct {
	Column     string   `json:"column" yaml:"column"`
	Categories []string `json:"categories" yaml:"categories"`
}

// Columns returns the input columns in the order the encoding expects them.
func (e Encoding) Columns() []string {
	cols := make([]string, 0, len(e.Categorical)+1)
	cols = append(cols, e.Numeric.Column)
	for _, c := range e.Categorical {
		cols = append(cols, c.Column)
	}
	return cols
}

// FeatureNames returns the encoded feature names in vector order.
func (e Encoding) FeatureNames() []string {
	names := []string{e.Numeric.Column}
	for _, c := range e.Categorical {
		for _, v := range c.Categories {
			names = append(names, featureName(c.Column, v))
		}
	}
	return names
}

func featureName(column, category string) string {
	return column + "=" + category
}

// Check verifies the encoding was fit on the schema's columns, in the same
// order, with vocabularies drawn from the schema's allowed values.
func (e Encoding) Check(schema *domain.FeatureSchema) error {
	if want, got := schema.Columns(), e.Columns(); !slices.Equal(want, got) {
		return fmt.Errorf("columns %q do not match schema columns %q", got, want)
	}
	if e.Numeric.Scale == 0 {
		return errors.New("numeric scale must be non-zero")
	}

	for _, c := range e.Categorical {
		if len(c.Categories) == 0 {
			return fmt.Errorf("column %q has an empty vocabulary", c.Column)
		}
		seen := make(map[string]bool, len(c.Categories))
		for _, v := range c.Categories {
			if seen[v] {
				return fmt.Errorf("column %q lists %q twice", c.Column, v)
			}
			seen[v] = true
			if !schema.Validate(c.Column, v) {
				return fmt.Errorf("column %q category %q is not an allowed value", c.Column, v)
			}
		}
	}
	return nil
}

// encode writes the feature vector for row into dst, which must have
// len(FeatureNames()) elements.
func (e Encoding) encode(row []any, dst []float64) error {
	if len(row) != len(e.Categorical)+1 {
		return fmt.Errorf("row has %d values, want %d", len(row), len(e.Categorical)+1)
	}
	clear(dst)

	num, ok := row[0].(float64)
	if !ok {
		return fmt.Errorf("column %q: expected float64, got %T", e.Numeric.Column, row[0])
	}
	dst[0] = (num - e.Numeric.Mean) / e.Numeric.Scale

	offset := 1
	for i, c := range e.Categorical {
		v, ok := row[i+1].(string)
		if !ok {
			return fmt.Errorf("column %q: expected string, got %T", c.Column, row[i+1])
		}
		if j := slices.Index(c.Categories, v); j >= 0 {
			dst[offset+j] = 1
		}
		offset += len(c.Categories)
	}
	return nil
}
