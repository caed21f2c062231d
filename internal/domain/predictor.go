package domain

import "context"

// Predictor is the prediction capability: it maps each row of a table to a
// class code. Implementations must not mutate shared state so one instance
// can serve concurrent requests.
type Predictor interface {
	Predict(ctx context.Context, batch Table) ([]int, error)
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(ctx context.Context, batch Table) ([]int, error)

func (f PredictorFunc) Predict(ctx context.Context, batch Table) ([]int, error) {
	return f(ctx, batch)
}

// ReadinessChecker is implemented by predictors that depend on something
// outside the process, such as a model server.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}
