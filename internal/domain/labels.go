package domain

import (
	"fmt"
	"maps"
	"slices"
)

// Label is a human-readable damage severity.
type Label string

// LabelUnknown is returned for class codes outside the label map.
const LabelUnknown Label = "Unknown"

// DamageLabelMap maps classifier output codes to damage labels.
type DamageLabelMap map[int]Label

// DamageLabels is the training-time label encoding. The order is the
// encoder's, not severity order, and must not be rearranged.
var DamageLabels = DamageLabelMap{
	4: "No Damage",
	0: "Affected (1-9%)",
	3: "Minor (10-25%)",
	1: "Destroyed (>50%)",
	2: "Major (26-50%)",
}

// LabelFor resolves a class code, returning LabelUnknown when it is not mapped.
func (m DamageLabelMap) LabelFor(code int) Label {
	if l, ok := m[code]; ok {
		return l
	}
	return LabelUnknown
}

// Codes returns the mapped class codes in ascending order.
func (m DamageLabelMap) Codes() []int {
	return slices.Sorted(maps.Keys(m))
}

// LabelFor resolves a class code against DamageLabels.
func LabelFor(code int) Label {
	return DamageLabels.LabelFor(code)
}

// PredictionResult is the raw class code and its resolved label.
type PredictionResult struct {
	Code  int   `json:"code"`
	Label Label `json:"label"`
}

// Known reports whether the code was present in the label map.
func (r PredictionResult) Known() bool {
	return r.Label != LabelUnknown
}

// Message renders the result the way the form displays it.
func (r PredictionResult) Message() string {
	return fmt.Sprintf("Predicted Damage Level: %s (Label=%d)", r.Label, r.Code)
}
