package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/wildfire-damage-service/internal/adapter/modelserver"
	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
)

// Options configures artifact loading.
type Options struct {
	Schema  *domain.FeatureSchema
	Timeout time.Duration // default model server timeout for remote models
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Bundle is the loaded, read-only artifact pair.
type Bundle struct {
	Model        domain.Predictor
	Kind         string
	Version      string
	Preprocessor Encoding

	// ModelID identifies the model artifact by kind and content hash. Any edit
	// to the model file yields a new ID.
	ModelID string
}

// Load reads the model and preprocessor artifacts and checks them against the
// feature schema. Every failure is a *domain.ArtifactLoadError; callers must
// treat it as fatal.
func Load(modelPath, preprocessorPath string, opts Options) (*Bundle, error) {
	var pre PreprocessorDocument
	if err := readDocument(preprocessorPath, &pre); err != nil {
		return nil, &domain.ArtifactLoadError{Path: preprocessorPath, Err: err}
	}
	if pre.Format != PreprocessorFormat {
		return nil, &domain.ArtifactLoadError{Path: preprocessorPath, Err: fmt.Errorf("unsupported format %q", pre.Format)}
	}
	if err := pre.Check(opts.Schema); err != nil {
		return nil, &domain.ArtifactLoadError{Path: preprocessorPath, Err: err}
	}

	data, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, &domain.ArtifactLoadError{Path: modelPath, Err: err}
	}
	var doc ModelDocument
	if err := decodeDocument(modelPath, data, &doc); err != nil {
		return nil, &domain.ArtifactLoadError{Path: modelPath, Err: err}
	}
	if doc.Format != ModelFormat {
		return nil, &domain.ArtifactLoadError{Path: modelPath, Err: fmt.Errorf("unsupported format %q", doc.Format)}
	}

	model, err := buildModel(doc, pre.Encoding, opts)
	if err != nil {
		return nil, &domain.ArtifactLoadError{Path: modelPath, Err: err}
	}

	sum := sha256.Sum256(data)
	modelID := doc.Kind + "-" + hex.EncodeToString(sum[:8])

	opts.Logger.Info("model artifacts loaded",
		"model_path", modelPath,
		"model_id", modelID,
		"preprocessor_path", preprocessorPath,
		"kind", doc.Kind,
		"version", doc.Version,
	)

	return &Bundle{
		Model:        model,
		Kind:         doc.Kind,
		Version:      doc.Version,
		Preprocessor: pre.Encoding,
		ModelID:      modelID,
	}, nil
}

// buildModel returns the prediction capability described by doc. A kind this
// service cannot predict with is an error.
func buildModel(doc ModelDocument, pre Encoding, opts Options) (domain.Predictor, error) {
	switch doc.Kind {
	case KindLinear:
		if doc.Pipeline == nil {
			return nil, errors.New("linear model has no pipeline")
		}
		if err := doc.Pipeline.Check(opts.Schema); err != nil {
			return nil, fmt.Errorf("model pipeline: %w", err)
		}
		if !slices.Equal(doc.Pipeline.Columns(), pre.Columns()) {
			return nil, errors.New("model pipeline and preprocessor disagree on columns")
		}
		return NewLinearModel(doc)

	case KindRemote:
		if doc.Endpoint == "" {
			return nil, errors.New("remote model has no endpoint")
		}
		timeout := opts.Timeout
		if doc.Timeout != "" {
			d, err := time.ParseDuration(doc.Timeout)
			if err != nil || d <= 0 {
				return nil, fmt.Errorf("invalid remote model timeout %q", doc.Timeout)
			}
			timeout = d
		}
		return modelserver.NewClient(doc.Endpoint, timeout, opts.Logger, opts.Metrics), nil

	case "":
		return nil, errors.New("model kind is not set")
	default:
		return nil, fmt.Errorf("model kind %q has no prediction capability", doc.Kind)
	}
}
