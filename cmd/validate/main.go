// Command validate checks a model and preprocessor artifact pair before it is
// deployed: both documents must load, agree with the feature schema and each
// other, cover the damage label map, and answer a smoke prediction.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -model artifacts/model.json \
//	  -preprocessor artifacts/preprocessor.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/wildfire-damage-service/internal/adapter/artifact"
	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/inference"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	modelPath := flag.String("model", "artifacts/model.json", "path to the model artifact")
	prePath := flag.String("preprocessor", "artifacts/preprocessor.json", "path to the preprocessor artifact")
	timeout := flag.Duration("timeout", 5*time.Second, "model server timeout for remote models")
	flag.Parse()

	os.Exit(run(*modelPath, *prePath, *timeout, os.Stdout))
}

func run(modelPath, prePath string, timeout time.Duration, out io.Writer) int {
	fmt.Fprintln(out, "=== Damage Model Artifact Validation ===")
	fmt.Fprintln(out)

	schema := domain.DefaultSchema()
	bundle, err := artifact.Load(modelPath, prePath, artifact.Options{
		Schema:  schema,
		Timeout: timeout,
		Logger:  observability.DiscardLogger(),
		Metrics: observability.NewMetricsForTesting(),
	})
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Model: kind=%s version=%s\n\n", bundle.Kind, orNone(bundle.Version))

	phases := []*phase{
		validateVocabularyCoverage(schema, bundle.Preprocessor),
		validateLabelCoverage(bundle.Model),
		validateSmokePrediction(schema, bundle.Model),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() && len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// validateVocabularyCoverage warns about allowed values the preprocessor never
// saw. They are accepted by the form but encode as all zeros.
func validateVocabularyCoverage(schema *domain.FeatureSchema, enc artifact.Encoding) *phase {
	p := &phase{name: "Preprocessor vocabulary coverage"}

	vocab := make(map[string][]string, len(enc.Categorical))
	for _, c := range enc.Categorical {
		vocab[c.Column] = c.Categories
	}
	for _, f := range schema.Categorical() {
		cats, ok := vocab[f.Name]
		if !ok {
			p.errorf("%s: no vocabulary", f.Name)
			continue
		}
		for _, v := range f.Allowed {
			if !slices.Contains(cats, v) {
				p.warnf("%s: %q not in vocabulary", f.Name, v)
			}
		}
	}
	return p
}

// validateLabelCoverage checks that every class a linear model can emit has a
// damage label. Remote models are skipped.
func validateLabelCoverage(model domain.Predictor) *phase {
	p := &phase{name: "Class codes map to damage labels"}

	lm, ok := model.(*artifact.LinearModel)
	if !ok {
		p.warnf("remote model classes cannot be inspected")
		return p
	}
	classes := lm.Classes()
	for _, code := range classes {
		if domain.LabelFor(code) == domain.LabelUnknown {
			p.errorf("class %d has no damage label", code)
		}
	}
	for _, code := range domain.DamageLabels.Codes() {
		if !slices.Contains(classes, code) {
			p.warnf("label %q (code %d) is never predicted", domain.LabelFor(code), code)
		}
	}
	return p
}

// validateSmokePrediction runs one prediction with the form defaults.
func validateSmokePrediction(schema *domain.FeatureSchema, model domain.Predictor) *phase {
	p := &phase{name: "Smoke prediction with form defaults"}

	raw := make(map[string]any)
	for _, f := range schema.Fields() {
		if f.Kind == domain.KindNumeric {
			raw[f.Name] = f.Range.Default
			continue
		}
		raw[f.Name] = f.Allowed[0]
	}

	logger := observability.DiscardLogger()
	b := inference.NewBuilder(schema, model, logger, observability.NewMetricsForTesting())
	result, err := b.BuildAndPredict(context.Background(), raw)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if !result.Known() {
		p.errorf("predicted code %d has no damage label", result.Code)
	}
	return p
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
