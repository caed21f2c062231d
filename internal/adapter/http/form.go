package http

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/gin-gonic/gin"
)

//go:embed form.html
var formHTML string

type formField struct {
	ID      string
	Name    string
	Numeric bool
	Value   string
	Min     string
	Max     string
	Step    string
	Options []string
}

type formPage struct {
	Fields  []formField
	Message string
	IsError bool
}

// newFormPage builds the form for schema, prefilled from values. Fields
// without a value fall back to the numeric default or the first option.
func newFormPage(schema *domain.FeatureSchema, values map[string]string) formPage {
	fields := schema.Fields()
	page := formPage{Fields: make([]formField, len(fields))}

	for i, f := range fields {
		ff := formField{
			ID:   fmt.Sprintf("field-%d", i),
			Name: f.Name,
		}
		value, ok := values[f.Name]

		if f.Kind == domain.KindNumeric {
			ff.Numeric = true
			ff.Min = formatFloat(f.Range.Min)
			ff.Max = formatFloat(f.Range.Max)
			ff.Step = formatFloat(f.Range.Step)
			if !ok {
				value = formatFloat(f.Range.Default)
			}
		} else {
			ff.Options = f.Allowed
			if !ok && len(f.Allowed) > 0 {
				value = f.Allowed[0]
			}
		}
		ff.Value = value
		page.Fields[i] = ff
	}
	return page
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Server) showForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", newFormPage(s.svc.Schema(), nil))
}

func (s *Server) submitForm(c *gin.Context) {
	schema := s.svc.Schema()
	values := make(map[string]string)
	raw := make(map[string]any)

	for _, f := range schema.Fields() {
		v, ok := c.GetPostForm(f.Name)
		if !ok {
			continue
		}
		values[f.Name] = v
		raw[f.Name] = formValue(f, v)
	}

	page := newFormPage(schema, values)
	result, err := s.svc.BuildAndPredict(c.Request.Context(), raw)
	status := http.StatusOK

	var (
		verr *domain.ValidationError
		ierr *domain.InferenceError
	)
	switch {
	case err == nil:
		page.Message = result.Message()
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		page.Message = fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Reason)
		page.IsError = true
	case errors.As(err, &ierr):
		status = http.StatusInternalServerError
		page.Message = "Error during prediction: " + ierr.Err.Error()
		page.IsError = true
	default:
		status = http.StatusInternalServerError
		page.Message = "Error during prediction: " + err.Error()
		page.IsError = true
	}

	c.HTML(status, "form.html", page)
}

// formValue converts a submitted string to the type the schema expects.
// Unparseable numbers are passed through as strings and rejected by
// validation.
func formValue(f domain.FieldDescriptor, v string) any {
	if f.Kind != domain.KindNumeric {
		return v
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return v
	}
	return n
}
