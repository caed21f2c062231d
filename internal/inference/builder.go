package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
)

// Outcome label values for the predictions counter.
const (
	outcomeSuccess         = "success"
	outcomeValidationError = "validation_error"
	outcomeInferenceError  = "inference_error"
)

// Builder turns raw field values into a one-row prediction request, calls the
// predictor and resolves the class code to a damage label. It holds no
// per-request state and is safe for concurrent use.
type Builder struct {
	schema    *domain.FeatureSchema
	labels    domain.DamageLabelMap
	predictor domain.Predictor
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewBuilder creates a Builder over the given schema and predictor.
func NewBuilder(schema *domain.FeatureSchema, predictor domain.Predictor, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{
		schema:    schema,
		labels:    domain.DamageLabels,
		predictor: predictor,
		logger:    logger,
		metrics:   metrics,
	}
}

// Schema returns the feature schema requests are validated against.
func (b *Builder) Schema() *domain.FeatureSchema {
	return b.schema
}

// CheckReadiness delegates to the predictor when it has an external dependency.
func (b *Builder) CheckReadiness(ctx context.Context) error {
	if rc, ok := b.predictor.(domain.ReadinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

// BuildAndPredict validates raw, assembles the record in model column order,
// and runs a single prediction.
//
// A *domain.ValidationError is returned without calling the predictor. Any
// failure of the predictor, including a panic or a result that is not exactly
// one code, is returned as a *domain.InferenceError. An unmapped class code is
// a successful result labeled domain.LabelUnknown.
func (b *Builder) BuildAndPredict(ctx context.Context, raw map[string]any) (domain.PredictionResult, error) {
	record, err := b.schema.NewRecord(raw)
	if err != nil {
		b.metrics.Predictions.WithLabelValues(outcomeValidationError).Inc()
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			b.metrics.ValidationErrors.WithLabelValues(verr.Field).Inc()
		}
		b.logger.Warn("prediction request rejected", "error", err)
		return domain.PredictionResult{}, err
	}

	start := domain.Now()
	codes, err := b.invoke(ctx, record.Table())
	b.metrics.InferenceDuration.Observe(domain.Since(start).Seconds())

	if err == nil && len(codes) != 1 {
		err = fmt.Errorf("expected 1 class code, got %d", len(codes))
	}
	if err != nil {
		b.metrics.Predictions.WithLabelValues(outcomeInferenceError).Inc()
		b.logger.Error("prediction failed", "error", err)
		return domain.PredictionResult{}, &domain.InferenceError{Err: err}
	}

	result := domain.PredictionResult{
		Code:  codes[0],
		Label: b.labels.LabelFor(codes[0]),
	}

	b.metrics.Predictions.WithLabelValues(outcomeSuccess).Inc()
	b.metrics.PredictedLabels.WithLabelValues(string(result.Label)).Inc()
	if !result.Known() {
		b.metrics.UnknownLabels.Inc()
		b.logger.Warn("class code not in label map", "code", result.Code)
	}
	b.logger.Debug("prediction completed", "code", result.Code, "label", result.Label)

	return result, nil
}

// invoke calls the predictor and converts a panic into an error.
func (b *Builder) invoke(ctx context.Context, batch domain.Table) (codes []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panic: %v", r)
		}
	}()
	return b.predictor.Predict(ctx, batch)
}
