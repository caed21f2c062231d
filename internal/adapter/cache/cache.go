package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
)

const keyPrefix = "damage:prediction:"

// ErrEmptyPrediction is returned by a Store asked to keep zero class codes.
var ErrEmptyPrediction = errors.New("empty prediction")

// Store holds predicted class codes by key. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]int, bool, error)
	Put(ctx context.Context, key string, codes []int) error
	Backend() string
}

// CachedPredictor wraps a Predictor with a prediction cache. Store errors are
// logged and fall through to the wrapped predictor.
//
// Keys are namespaced by model ID, so a store shared between replicas or
// across a model rollout never returns another model's predictions.
type CachedPredictor struct {
	inner   domain.Predictor
	store   Store
	modelID string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedPredictor creates a cache decorator around the predictor for the
// model identified by modelID.
func NewCachedPredictor(inner domain.Predictor, store Store, modelID string, logger *slog.Logger, metrics *observability.Metrics) *CachedPredictor {
	return &CachedPredictor{
		inner:   inner,
		store:   store,
		modelID: modelID,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *CachedPredictor) Predict(ctx context.Context, batch domain.Table) ([]int, error) {
	key, err := tableKey(c.modelID, batch)
	if err != nil {
		return c.inner.Predict(ctx, batch)
	}

	backend := c.store.Backend()
	codes, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.CacheLookups.WithLabelValues(backend, "error").Inc()
		c.logger.Warn("prediction cache lookup failed", "backend", backend, "error", err)
	case ok && len(codes) == len(batch.Rows):
		c.metrics.CacheLookups.WithLabelValues(backend, "hit").Inc()
		return codes, nil
	default:
		c.metrics.CacheLookups.WithLabelValues(backend, "miss").Inc()
	}

	codes, err = c.inner.Predict(ctx, batch)
	if err != nil {
		return nil, err
	}
	// Empty results and results of the wrong length are passed through uncached.
	if len(codes) > 0 && len(codes) == len(batch.Rows) {
		if err := c.store.Put(ctx, key, slices.Clone(codes)); err != nil {
			c.logger.Warn("prediction cache store failed", "backend", backend, "error", err)
		}
	}
	return codes, nil
}

// CheckReadiness reports the wrapped predictor's readiness, then the store's
// when it has a readiness check.
func (c *CachedPredictor) CheckReadiness(ctx context.Context) error {
	if rc, ok := c.inner.(domain.ReadinessChecker); ok {
		if err := rc.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	if rc, ok := c.store.(domain.ReadinessChecker); ok {
		if err := rc.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("prediction cache: %w", err)
		}
	}
	return nil
}

// tableKey hashes the column names and values of batch under the model's
// namespace.
func tableKey(modelID string, batch domain.Table) (string, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return keyPrefix + modelID + ":" + hex.EncodeToString(sum[:]), nil
}
