package artifact

import (
	"context"
	"testing"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestModel(t *testing.T) *LinearModel {
	t.Helper()
	var doc ModelDocument
	require.NoError(t, readDocument("testdata/model.json", &doc))
	m, err := NewLinearModel(doc)
	require.NoError(t, err)
	return m
}

func recordTable(t *testing.T, raw map[string]any) domain.Table {
	t.Helper()
	rec, err := domain.DefaultSchema().NewRecord(raw)
	require.NoError(t, err)
	return rec.Table()
}

func scenarioA() map[string]any {
	return map[string]any{
		domain.FieldAssessedValue:     100000,
		domain.FieldStructureCategory: "Single Residence",
		domain.FieldRoofConstruction:  "Tile",
		domain.FieldEaves:             "Enclosed",
		domain.FieldVentScreen:        `Mesh Screen <= 1/8""`,
		domain.FieldExteriorSiding:    "Stucco Brick Cement",
		domain.FieldWindowPane:        "Multi Pane",
		domain.FieldFenceAttached:     "No Fence",
	}
}

func TestLinearModel_Predict(t *testing.T) {
	m := loadTestModel(t)

	tests := []struct {
		name   string
		mutate func(raw map[string]any)
		want   int
	}{
		{
			name:   "fire resistant home",
			mutate: func(map[string]any) {},
			want:   4,
		},
		{
			name: "all wood construction",
			mutate: func(raw map[string]any) {
				raw[domain.FieldRoofConstruction] = "Wood"
				raw[domain.FieldExteriorSiding] = "Wood"
				raw[domain.FieldEaves] = "Unenclosed"
				raw[domain.FieldVentScreen] = "Unscreened"
			},
			want: 1,
		},
		{
			name: "minor structure with combustible fence",
			mutate: func(raw map[string]any) {
				raw[domain.FieldAssessedValue] = 500000
				raw[domain.FieldStructureCategory] = "Other Minor Structure"
				raw[domain.FieldRoofConstruction] = "Unknown"
				raw[domain.FieldEaves] = "Unknown"
				raw[domain.FieldVentScreen] = "Unknown"
				raw[domain.FieldExteriorSiding] = "Unknown"
				raw[domain.FieldWindowPane] = "Unknown"
				raw[domain.FieldFenceAttached] = "Combustible"
			},
			want: 2,
		},
		{
			name: "combustible fence",
			mutate: func(raw map[string]any) {
				raw[domain.FieldAssessedValue] = 500000
				raw[domain.FieldRoofConstruction] = "Unknown"
				raw[domain.FieldEaves] = "Unknown"
				raw[domain.FieldExteriorSiding] = "Unknown"
				raw[domain.FieldFenceAttached] = "Combustible"
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := scenarioA()
			tt.mutate(raw)
			codes, err := m.Predict(context.Background(), recordTable(t, raw))
			require.NoError(t, err)
			assert.Equal(t, []int{tt.want}, codes)
		})
	}
}

func TestLinearModel_Predict_MultipleRows(t *testing.T) {
	m := loadTestModel(t)
	a := recordTable(t, scenarioA())

	wood := scenarioA()
	wood[domain.FieldRoofConstruction] = "Wood"
	wood[domain.FieldExteriorSiding] = "Wood"
	wood[domain.FieldEaves] = "Unenclosed"
	wood[domain.FieldVentScreen] = "Unscreened"
	b := recordTable(t, wood)

	batch := domain.Table{Columns: a.Columns, Rows: append(a.Rows, b.Rows...)}
	codes, err := m.Predict(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1}, codes)
}

func TestLinearModel_Predict_ColumnMismatch(t *testing.T) {
	m := loadTestModel(t)
	batch := recordTable(t, scenarioA())
	batch.Columns[1], batch.Columns[2] = batch.Columns[2], batch.Columns[1]

	_, err := m.Predict(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match model columns")
}

func TestLinearModel_TieGoesToFirstClass(t *testing.T) {
	doc := ModelDocument{
		Format: ModelFormat,
		Kind:   KindLinear,
		Pipeline: &Encoding{
			Numeric:     NumericScaler{Column: "n", Scale: 1},
			Categorical: []CategoryVocabulary{{Column: "c", Categories: []string{"x"}}},
		},
		Classes: []ClassWeight{
			{Code: 3, Intercept: 1},
			{Code: 2, Intercept: 1},
		},
	}
	m, err := NewLinearModel(doc)
	require.NoError(t, err)

	codes, err := m.Predict(context.Background(), domain.Table{
		Columns: []string{"n", "c"},
		Rows:    [][]any{{0.0, "x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, codes)
}

func TestNewLinearModel_Errors(t *testing.T) {
	pipeline := &Encoding{
		Numeric:     NumericScaler{Column: "n", Scale: 1},
		Categorical: []CategoryVocabulary{{Column: "c", Categories: []string{"x"}}},
	}

	tests := []struct {
		name   string
		doc    ModelDocument
		errMsg string
	}{
		{
			name:   "no pipeline",
			doc:    ModelDocument{Classes: []ClassWeight{{Code: 1}}},
			errMsg: "no pipeline",
		},
		{
			name:   "no classes",
			doc:    ModelDocument{Pipeline: pipeline},
			errMsg: "no classes",
		},
		{
			name:   "duplicate code",
			doc:    ModelDocument{Pipeline: pipeline, Classes: []ClassWeight{{Code: 1}, {Code: 1}}},
			errMsg: "listed twice",
		},
		{
			name: "unknown feature",
			doc: ModelDocument{Pipeline: pipeline, Classes: []ClassWeight{
				{Code: 1, Weights: map[string]float64{"c=y": 1}},
			}},
			errMsg: `unknown feature "c=y"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLinearModel(tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLinearModel_Classes(t *testing.T) {
	m := loadTestModel(t)
	assert.Equal(t, []int{4, 1, 0, 3, 2}, m.Classes())

	c := m.Classes()
	c[0] = 99
	assert.Equal(t, 4, m.Classes()[0])
}
