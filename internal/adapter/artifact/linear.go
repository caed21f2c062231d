package artifact

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// LinearModel is a multinomial linear classifier with its preprocessing
// embedded. It predicts the class whose score W·x + b is highest; ties go to
// the class listed first. All fields are read-only after construction.
type LinearModel struct {
	encoding Encoding
	columns  []string
	weights  *mat.Dense    // classes x features
	bias     *mat.VecDense // classes
	codes    []int
}

// NewLinearModel builds a LinearModel from a decoded model document.
func NewLinearModel(doc ModelDocument) (*LinearModel, error) {
	if doc.Pipeline == nil {
		return nil, errors.New("linear model has no pipeline")
	}
	if len(doc.Classes) == 0 {
		return nil, errors.New("linear model has no classes")
	}

	features := doc.Pipeline.FeatureNames()
	index := make(map[string]int, len(features))
	for i, name := range features {
		index[name] = i
	}

	nClasses, nFeatures := len(doc.Classes), len(features)
	weights := mat.NewDense(nClasses, nFeatures, nil)
	bias := mat.NewVecDense(nClasses, nil)
	codes := make([]int, nClasses)

	for i, c := range doc.Classes {
		if slices.Contains(codes[:i], c.Code) {
			return nil, fmt.Errorf("class code %d listed twice", c.Code)
		}
		codes[i] = c.Code
		bias.SetVec(i, c.Intercept)
		for name, w := range c.Weights {
			j, ok := index[name]
			if !ok {
				return nil, fmt.Errorf("class %d: weight for unknown feature %q", c.Code, name)
			}
			weights.Set(i, j, w)
		}
	}

	return &LinearModel{
		encoding: *doc.Pipeline,
		columns:  doc.Pipeline.Columns(),
		weights:  weights,
		bias:     bias,
		codes:    codes,
	}, nil
}

// Classes returns the class codes in the order they were listed.
func (m *LinearModel) Classes() []int {
	return slices.Clone(m.codes)
}

// Predict returns one class code per row.
func (m *LinearModel) Predict(_ context.Context, batch domain.Table) ([]int, error) {
	if !slices.Equal(batch.Columns, m.columns) {
		return nil, fmt.Errorf("columns %q do not match model columns %q", batch.Columns, m.columns)
	}

	_, nFeatures := m.weights.Dims()
	x := make([]float64, nFeatures)
	out := make([]int, 0, len(batch.Rows))

	for _, row := range batch.Rows {
		if err := m.encoding.encode(row, x); err != nil {
			return nil, err
		}

		var scores mat.VecDense
		scores.MulVec(m.weights, mat.NewVecDense(nFeatures, x))
		scores.AddVec(&scores, m.bias)

		best := 0
		for i := 1; i < scores.Len(); i++ {
			if scores.AtVec(i) > scores.AtVec(best) {
				best = i
			}
		}
		out = append(out, m.codes[best])
	}
	return out, nil
}
