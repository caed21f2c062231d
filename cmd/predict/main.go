// Command predict runs a single damage prediction from the command line using
// the same artifacts and validation as the server.
//
// Usage:
//
//	go run ./cmd/predict \
//	  -model artifacts/model.json \
//	  -preprocessor artifacts/preprocessor.json \
//	  -value 250000 -roof Wood -siding Wood
//
// Unset feature flags take the form defaults: 100000 for the assessed value
// and the first allowed value of each categorical field.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/wildfire-damage-service/internal/adapter/artifact"
	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/inference"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

// categoricalFlags maps flag names to schema columns.
var categoricalFlags = []struct {
	flag  string
	field string
}{
	{"structure", domain.FieldStructureCategory},
	{"roof", domain.FieldRoofConstruction},
	{"eaves", domain.FieldEaves},
	{"vent", domain.FieldVentScreen},
	{"siding", domain.FieldExteriorSiding},
	{"window", domain.FieldWindowPane},
	{"fence", domain.FieldFenceAttached},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	schema := domain.DefaultSchema()

	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	fs.SetOutput(stderr)
	modelPath := fs.String("model", "artifacts/model.json", "path to the model artifact")
	prePath := fs.String("preprocessor", "artifacts/preprocessor.json", "path to the preprocessor artifact")
	timeout := fs.Duration("timeout", 5*time.Second, "model server timeout for remote models")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	value := fs.Float64("value", schema.Numeric().Range.Default, domain.FieldAssessedValue)

	cats := make(map[string]*string, len(categoricalFlags))
	for _, cf := range categoricalFlags {
		f, _ := schema.Field(cf.field)
		cats[cf.field] = fs.String(cf.flag, f.Allowed[0], cf.field)
	}

	if err := fs.Parse(args); err != nil {
		return exitValidation
	}

	logger := observability.DiscardLogger()
	metrics := observability.NewMetricsForTesting()

	bundle, err := artifact.Load(*modelPath, *prePath, artifact.Options{
		Schema:  schema,
		Timeout: *timeout,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	raw := map[string]any{domain.FieldAssessedValue: *value}
	for field, v := range cats {
		raw[field] = *v
	}

	builder := inference.NewBuilder(schema, bundle.Model, logger, metrics)
	result, err := builder.BuildAndPredict(context.Background(), raw)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(stderr, "Invalid %s: %s\n", verr.Field, verr.Reason)
		return exitValidation
	case err != nil:
		var ierr *domain.InferenceError
		if errors.As(err, &ierr) {
			err = ierr.Err
		}
		fmt.Fprintf(stderr, "Error during prediction: %v\n", err)
		return exitFailure
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(struct {
			Code    int          `json:"code"`
			Label   domain.Label `json:"label"`
			Known   bool         `json:"known"`
			Message string       `json:"message"`
		}{result.Code, result.Label, result.Known(), result.Message()})
		return exitOK
	}

	fmt.Fprintln(stdout, result.Message())
	return exitOK
}
