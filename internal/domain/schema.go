package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// FieldKind distinguishes numeric and categorical input columns.
type FieldKind string

const (
	KindNumeric     FieldKind = "numeric"
	KindCategorical FieldKind = "categorical"
)

// Column names as they appear in the training data.
const (
	FieldAssessedValue     = "Assessed Improved Value (parcel)"
	FieldStructureCategory = "Structure Category"
	FieldRoofConstruction  = "Roof Construction"
	FieldEaves             = "Eaves"
	FieldVentScreen        = "Vent Screen"
	FieldExteriorSiding    = "Exterior Siding"
	FieldWindowPane        = "Window Pane"
	FieldFenceAttached     = "Fence Attached to Structure"
)

// NumericConstraint bounds the numeric field. Min and Max are inclusive.
// Step is a UI hint only and is not enforced.
type NumericConstraint struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// Contains reports whether v is finite and within [Min, Max].
func (c NumericConstraint) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= c.Min && v <= c.Max
}

// FieldDescriptor is the metadata for one input column.
type FieldDescriptor struct {
	Name    string             `json:"name"`
	Kind    FieldKind          `json:"kind"`
	Allowed []string           `json:"allowed,omitempty"`
	Range   *NumericConstraint `json:"range,omitempty"`
}

func (f FieldDescriptor) allows(v string) bool {
	return slices.Contains(f.Allowed, v)
}

// FeatureSchema is the ordered set of columns the model was fit on: the
// numeric field followed by the categorical fields.
type FeatureSchema struct {
	numeric     FieldDescriptor
	categorical []FieldDescriptor
	index       map[string]int // name -> column position
}

// DefaultSchema returns a fresh copy of the wildfire damage feature schema.
func DefaultSchema() *FeatureSchema {
	return newFeatureSchema(
		FieldDescriptor{
			Name: FieldAssessedValue,
			Kind: KindNumeric,
			Range: &NumericConstraint{
				Min:     0,
				Max:     10_000_000,
				Default: 100_000,
				Step:    1_000,
			},
		},
		categorical(FieldStructureCategory,
			"Single Residence", "Other Minor Structure", "Multiple Residence",
			"Nonresidential Commercial", "Mixed Commercial/Residential",
			"Infrastructure", "Agriculture",
		),
		categorical(FieldRoofConstruction,
			"Asphalt", "Tile", "Unknown", "Metal", "Concrete", "Other", "Wood",
			"Combustible", "Fire Resistant", "No Deck/Porch", "Non Combustible",
		),
		categorical(FieldEaves,
			"Unenclosed", "Enclosed", "Unknown", "No Eaves", "Not Applicable", "Combustible",
		),
		categorical(FieldVentScreen,
			`Mesh Screen <= 1/8""`, `Mesh Screen > 1/8""`, "Unscreened", "Unknown",
			"No Vents", "Screened", ">30", "21-30", "Deck Elevated", "Attached Fence",
		),
		categorical(FieldExteriorSiding,
			"Wood", "Stucco Brick Cement", "Unknown", "Metal", "Other", "Vinyl",
			"Ignition Resistant", "Combustible", "Fire Resistant", "Stucco/Brick/Cement",
		),
		categorical(FieldWindowPane,
			"Single Pane", "Multi Pane", "Unknown", "No Windows", "No Deck/Porch",
			"Radiant Heat", "Asphalt",
		),
		categorical(FieldFenceAttached,
			"No Fence", "Combustible", "Unknown", "Non Combustible",
		),
	)
}

func categorical(name string, allowed ...string) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: KindCategorical, Allowed: allowed}
}

func newFeatureSchema(numeric FieldDescriptor, cats ...FieldDescriptor) *FeatureSchema {
	s := &FeatureSchema{
		numeric:     numeric,
		categorical: cats,
		index:       make(map[string]int, len(cats)+1),
	}
	s.index[numeric.Name] = 0
	for i, f := range cats {
		s.index[f.Name] = i + 1
	}
	return s
}

// Columns returns the column names in model order.
func (s *FeatureSchema) Columns() []string {
	cols := make([]string, 0, len(s.categorical)+1)
	cols = append(cols, s.numeric.Name)
	for _, f := range s.categorical {
		cols = append(cols, f.Name)
	}
	return cols
}

// Fields returns copies of all descriptors in model order.
func (s *FeatureSchema) Fields() []FieldDescriptor {
	fields := make([]FieldDescriptor, 0, len(s.categorical)+1)
	fields = append(fields, s.Numeric())
	fields = append(fields, s.Categorical()...)
	return fields
}

// Numeric returns a copy of the numeric field descriptor.
func (s *FeatureSchema) Numeric() FieldDescriptor {
	f := s.numeric
	if f.Range != nil {
		r := *f.Range
		f.Range = &r
	}
	return f
}

// Categorical returns copies of the categorical descriptors in model order.
func (s *FeatureSchema) Categorical() []FieldDescriptor {
	out := make([]FieldDescriptor, len(s.categorical))
	for i, f := range s.categorical {
		f.Allowed = slices.Clone(f.Allowed)
		out[i] = f
	}
	return out
}

// Field looks up a descriptor by column name.
func (s *FeatureSchema) Field(name string) (FieldDescriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	if i == 0 {
		return s.Numeric(), true
	}
	f := s.categorical[i-1]
	f.Allowed = slices.Clone(f.Allowed)
	return f, true
}

// Validate reports whether value satisfies the constraint of the named field.
// Unknown field names are never valid.
func (s *FeatureSchema) Validate(name string, value any) bool {
	return s.Check(name, value) == nil
}

// Check is Validate with a reason. It returns a *ValidationError on failure.
func (s *FeatureSchema) Check(name string, value any) error {
	i, ok := s.index[name]
	if !ok {
		return &ValidationError{Field: name, Value: value, Reason: "unknown field"}
	}

	if i == 0 {
		v, ok := toFloat(value)
		if !ok {
			return &ValidationError{Field: name, Value: value, Reason: "must be a number"}
		}
		if !s.numeric.Range.Contains(v) {
			return &ValidationError{
				Field:  name,
				Value:  value,
				Reason: fmt.Sprintf("must be between %s and %s", formatNumber(s.numeric.Range.Min), formatNumber(s.numeric.Range.Max)),
			}
		}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: name, Value: value, Reason: "must be a string"}
	}
	if !s.categorical[i-1].allows(str) {
		return &ValidationError{Field: name, Value: value, Reason: fmt.Sprintf("unsupported value %q", str)}
	}
	return nil
}

// toFloat accepts the numeric types produced by JSON decoding, form parsing
// and Go callers.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
