package inference_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/inference"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

// recordingPredictor returns fixed codes and remembers every table it saw.
type recordingPredictor struct {
	mu     sync.Mutex
	codes  []int
	err    error
	panics bool
	calls  []domain.Table
}

func (p *recordingPredictor) Predict(_ context.Context, batch domain.Table) ([]int, error) {
	p.mu.Lock()
	p.calls = append(p.calls, batch)
	p.mu.Unlock()

	if p.panics {
		panic("model exploded")
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.codes, nil
}

func (p *recordingPredictor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type readyPredictor struct {
	recordingPredictor
	readyErr error
}

func (p *readyPredictor) CheckReadiness(_ context.Context) error { return p.readyErr }

func newBuilder(p domain.Predictor) (*inference.Builder, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return inference.NewBuilder(domain.DefaultSchema(), p, observability.DiscardLogger(), metrics), metrics
}

func scenarioA() map[string]any {
	return map[string]any{
		domain.FieldAssessedValue:     100000,
		domain.FieldStructureCategory: "Single Residence",
		domain.FieldRoofConstruction:  "Tile",
		domain.FieldEaves:             "Enclosed",
		domain.FieldVentScreen:        "Screened",
		domain.FieldExteriorSiding:    "Stucco Brick Cement",
		domain.FieldWindowPane:        "Multi Pane",
		domain.FieldFenceAttached:     "No Fence",
	}
}

// --- tests ---

func TestBuildAndPredict_ScenarioA(t *testing.T) {
	p := &recordingPredictor{codes: []int{3}}
	b, metrics := newBuilder(p)

	result, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.NoError(t, err)
	assert.Equal(t, domain.PredictionResult{Code: 3, Label: "Minor (10-25%)"}, result)

	require.Equal(t, 1, p.callCount())
	want := domain.Table{
		Columns: []string{
			"Assessed Improved Value (parcel)",
			"Structure Category",
			"Roof Construction",
			"Eaves",
			"Vent Screen",
			"Exterior Siding",
			"Window Pane",
			"Fence Attached to Structure",
		},
		Rows: [][]any{{
			100000.0, "Single Residence", "Tile", "Enclosed", "Screened",
			"Stucco Brick Cement", "Multi Pane", "No Fence",
		}},
	}
	if diff := cmp.Diff(want, p.calls[0]); diff != "" {
		t.Fatalf("predictor input mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictedLabels.WithLabelValues("Minor (10-25%)")))
}

func TestBuildAndPredict_EveryLabel(t *testing.T) {
	for code, label := range domain.DamageLabels {
		p := &recordingPredictor{codes: []int{code}}
		b, _ := newBuilder(p)

		result, err := b.BuildAndPredict(context.Background(), scenarioA())
		require.NoError(t, err)
		assert.Equal(t, label, result.Label)
		assert.True(t, result.Known())
	}
}

func TestBuildAndPredict_ScenarioB_NegativeNumericNeverCallsPredictor(t *testing.T) {
	p := &recordingPredictor{codes: []int{4}}
	b, metrics := newBuilder(p)

	raw := scenarioA()
	raw[domain.FieldAssessedValue] = -5

	_, err := b.BuildAndPredict(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.False(t, errors.Is(err, domain.ErrInference))
	assert.Equal(t, 0, p.callCount())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("validation_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationErrors.WithLabelValues(domain.FieldAssessedValue)))
}

func TestBuildAndPredict_ScenarioC_UnlistedCategoryIdentifiesField(t *testing.T) {
	p := &recordingPredictor{codes: []int{4}}
	b, _ := newBuilder(p)

	raw := scenarioA()
	raw[domain.FieldWindowPane] = "Triple Pane"

	_, err := b.BuildAndPredict(context.Background(), raw)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.FieldWindowPane, verr.Field)
	assert.Equal(t, 0, p.callCount())
}

func TestBuildAndPredict_MissingAndExtraFields(t *testing.T) {
	p := &recordingPredictor{codes: []int{4}}
	b, _ := newBuilder(p)

	missing := scenarioA()
	delete(missing, domain.FieldFenceAttached)
	_, err := b.BuildAndPredict(context.Background(), missing)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	extra := scenarioA()
	extra["Year Built"] = 1987
	_, err = b.BuildAndPredict(context.Background(), extra)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	assert.Equal(t, 0, p.callCount())
}

func TestBuildAndPredict_ScenarioD_InferenceErrorThenRecovers(t *testing.T) {
	p := &recordingPredictor{err: errors.New("shape mismatch")}
	b, metrics := newBuilder(p)

	_, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInference))
	assert.False(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "shape mismatch")

	// The same builder keeps serving once the predictor recovers.
	p.err = nil
	p.codes = []int{4}
	result, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.NoError(t, err)
	assert.Equal(t, domain.Label("No Damage"), result.Label)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("inference_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("success")))
}

func TestBuildAndPredict_PredictorPanicIsInferenceError(t *testing.T) {
	p := &recordingPredictor{panics: true}
	b, _ := newBuilder(p)

	_, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInference))
	assert.Contains(t, err.Error(), "model exploded")
}

func TestBuildAndPredict_WrongResultLength(t *testing.T) {
	for _, codes := range [][]int{nil, {1, 2}} {
		p := &recordingPredictor{codes: codes}
		b, _ := newBuilder(p)

		_, err := b.BuildAndPredict(context.Background(), scenarioA())
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInference))
	}
}

func TestBuildAndPredict_UnknownCodeIsSuccess(t *testing.T) {
	p := &recordingPredictor{codes: []int{99}}
	b, metrics := newBuilder(p)

	result, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.NoError(t, err)
	assert.Equal(t, 99, result.Code)
	assert.Equal(t, domain.LabelUnknown, result.Label)
	assert.False(t, result.Known())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UnknownLabels))
}

func TestBuildAndPredict_Idempotent(t *testing.T) {
	p := &recordingPredictor{codes: []int{1}}
	b, _ := newBuilder(p)

	first, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.NoError(t, err)
	second, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Equal(t, 2, p.callCount())
	assert.Equal(t, p.calls[0], p.calls[1])
}

func TestBuildAndPredict_ConcurrentRequestsStayIsolated(t *testing.T) {
	p := domain.PredictorFunc(func(_ context.Context, batch domain.Table) ([]int, error) {
		// Echo the category position so each request can check it got its own row.
		v := batch.Rows[0][1].(string)
		for i, allowed := range domain.DefaultSchema().Categorical()[0].Allowed {
			if allowed == v {
				return []int{i}, nil
			}
		}
		return nil, errors.New("unexpected category")
	})
	b, _ := newBuilder(p)

	allowed := domain.DefaultSchema().Categorical()[0].Allowed
	var wg sync.WaitGroup
	for i, category := range allowed {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw := scenarioA()
			raw[domain.FieldStructureCategory] = category
			result, err := b.BuildAndPredict(context.Background(), raw)
			assert.NoError(t, err)
			assert.Equal(t, i, result.Code)
		}()
	}
	wg.Wait()
}

func TestBuildAndPredict_ObservesLatencyOnDomainClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, time.January, 7, 10, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	p := domain.PredictorFunc(func(context.Context, domain.Table) ([]int, error) {
		fake.Advance(250 * time.Millisecond)
		return []int{0}, nil
	})
	b, metrics := newBuilder(p)

	_, err := b.BuildAndPredict(context.Background(), scenarioA())
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.InferenceDuration))
}

func TestCheckReadiness(t *testing.T) {
	plain, _ := newBuilder(&recordingPredictor{})
	assert.NoError(t, plain.CheckReadiness(context.Background()))

	remote, _ := newBuilder(&readyPredictor{readyErr: errors.New("model server down")})
	assert.EqualError(t, remote.CheckReadiness(context.Background()), "model server down")
}
