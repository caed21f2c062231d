package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioA() map[string]any {
	return map[string]any{
		FieldAssessedValue:     100000,
		FieldStructureCategory: "Single Residence",
		FieldRoofConstruction:  "Tile",
		FieldEaves:             "Enclosed",
		FieldVentScreen:        "Screened",
		FieldExteriorSiding:    "Stucco Brick Cement",
		FieldWindowPane:        "Multi Pane",
		FieldFenceAttached:     "No Fence",
	}
}

func TestNewRecord_BuildsModelOrderedRow(t *testing.T) {
	s := DefaultSchema()

	rec, err := s.NewRecord(scenarioA())
	require.NoError(t, err)

	want := Table{
		Columns: s.Columns(),
		Rows: [][]any{{
			100000.0,
			"Single Residence",
			"Tile",
			"Enclosed",
			"Screened",
			"Stucco Brick Cement",
			"Multi Pane",
			"No Fence",
		}},
	}
	if diff := cmp.Diff(want, rec.Table()); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRecord_OrderIndependentOfInputOrder(t *testing.T) {
	s := DefaultSchema()
	base, err := s.NewRecord(scenarioA())
	require.NoError(t, err)

	// Map iteration order is randomized, so building many times from freshly
	// populated maps exercises different population orders.
	for range 50 {
		raw := make(map[string]any)
		cols := s.Columns()
		for i := len(cols) - 1; i >= 0; i-- {
			raw[cols[i]] = scenarioA()[cols[i]]
		}
		rec, err := s.NewRecord(raw)
		require.NoError(t, err)
		assert.Equal(t, base.Table(), rec.Table())
	}
}

func TestNewRecord_MissingField(t *testing.T) {
	s := DefaultSchema()
	raw := scenarioA()
	delete(raw, FieldWindowPane)
	delete(raw, FieldEaves)

	_, err := s.NewRecord(raw)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldEaves, verr.Field, "first missing field in model order")
	assert.Equal(t, "missing", verr.Reason)
}

func TestNewRecord_UndeclaredField(t *testing.T) {
	s := DefaultSchema()
	raw := scenarioA()
	raw["Zeta"] = "x"
	raw["Alpha"] = "y"

	_, err := s.NewRecord(raw)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Alpha", verr.Field)
	assert.Equal(t, "unknown field", verr.Reason)
}

func TestNewRecord_InvalidValues(t *testing.T) {
	s := DefaultSchema()

	t.Run("negative numeric", func(t *testing.T) {
		raw := scenarioA()
		raw[FieldAssessedValue] = -5
		_, err := s.NewRecord(raw)
		require.True(t, errors.Is(err, ErrValidation))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, FieldAssessedValue, verr.Field)
	})

	t.Run("unlisted category", func(t *testing.T) {
		raw := scenarioA()
		raw[FieldRoofConstruction] = "Thatch"
		_, err := s.NewRecord(raw)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, FieldRoofConstruction, verr.Field)
		assert.Equal(t, "Thatch", verr.Value)
	})
}

func TestInputRecord_IsImmutable(t *testing.T) {
	s := DefaultSchema()
	rec, err := s.NewRecord(scenarioA())
	require.NoError(t, err)

	cols := rec.Columns()
	cols[0] = "tampered"
	cats := rec.Categorical()
	cats[0] = "tampered"
	vals := rec.Values()
	vals[1] = "tampered"

	assert.Equal(t, FieldAssessedValue, rec.Columns()[0])
	assert.Equal(t, "Single Residence", rec.Categorical()[0])
	assert.Equal(t, "Single Residence", rec.Values()[1])
	assert.Equal(t, 100000.0, rec.Numeric())
}

func TestErrors_Classification(t *testing.T) {
	cause := errors.New("boom")

	ierr := &InferenceError{Err: cause}
	assert.True(t, errors.Is(ierr, ErrInference))
	assert.True(t, errors.Is(ierr, cause))
	assert.False(t, errors.Is(ierr, ErrValidation))
	assert.Equal(t, "inference: boom", ierr.Error())

	aerr := &ArtifactLoadError{Path: "model.json", Err: cause}
	assert.True(t, errors.Is(aerr, ErrArtifactLoad))
	assert.True(t, errors.Is(aerr, cause))
	assert.Equal(t, "load artifact model.json: boom", aerr.Error())

	verr := &ValidationError{Field: FieldEaves, Reason: "missing"}
	assert.True(t, errors.Is(verr, ErrValidation))
	assert.False(t, errors.Is(verr, ErrInference))
	assert.Equal(t, "invalid Eaves: missing", verr.Error())
}
