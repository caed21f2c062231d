package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Artifact format identifiers.
const (
	ModelFormat        = "damage-model/v1"
	PreprocessorFormat = "damage-preprocessor/v1"
)

// Model kinds.
const (
	KindLinear = "linear"
	KindRemote = "remote"
)

// PreprocessorDocument is the serialized preprocessing step fit alongside the
// model. The service only checks it against the feature schema.
type PreprocessorDocument struct {
	Format   string `json:"format" yaml:"format"`
	Encoding `yaml:",inline"`
}

// ModelDocument is the serialized model. Linear models embed their own
// preprocessing; remote models point at a model server.
type ModelDocument struct {
	Format  string `json:"format" yaml:"format"`
	Kind    string `json:"kind" yaml:"kind"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Linear models.
	Pipeline *Encoding     `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	Classes  []ClassWeight `json:"classes,omitempty" yaml:"classes,omitempty"`

	// Remote models.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ClassWeight is one row of a linear model. Weights are keyed by feature name:
// the numeric column name, or "<column>=<category>" for one-hot indicators.
// Features without a weight contribute zero.
type ClassWeight struct {
	Code      int                `json:"code" yaml:"code"`
	Intercept float64            `json:"intercept" yaml:"intercept"`
	Weights   map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// readDocument decodes a JSON or YAML file into v, chosen by extension.
// Unknown fields are rejected.
func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decodeDocument(path, data, v)
}

func decodeDocument(path string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported artifact extension %q", filepath.Ext(path))
	}
	return nil
}
