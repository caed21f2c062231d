package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type labelEntry struct {
	Code  int          `json:"code"`
	Label domain.Label `json:"label"`
}

type schemaResponse struct {
	Fields []domain.FieldDescriptor `json:"fields"`
	Labels []labelEntry             `json:"labels"`
}

type predictRequest struct {
	Features map[string]any `json:"features"`
}

type predictResponse struct {
	RequestID   string       `json:"request_id"`
	Code        int          `json:"code"`
	Label       domain.Label `json:"label"`
	Known       bool         `json:"known"`
	Message     string       `json:"message"`
	PredictedAt time.Time    `json:"predicted_at"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Server) getSchema(c *gin.Context) {
	codes := domain.DamageLabels.Codes()
	labels := make([]labelEntry, len(codes))
	for i, code := range codes {
		labels[i] = labelEntry{Code: code, Label: domain.DamageLabels.LabelFor(code)}
	}
	c.JSON(http.StatusOK, schemaResponse{
		Fields: s.svc.Schema().Fields(),
		Labels: labels,
	})
}

func (s *Server) predict(c *gin.Context) {
	id := requestID(c)

	var req predictRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{RequestID: id, Error: "bad_request", Message: "invalid JSON body"})
		return
	}
	if req.Features == nil {
		c.JSON(http.StatusBadRequest, errorResponse{RequestID: id, Error: "bad_request", Message: "features is required"})
		return
	}

	result, err := s.svc.BuildAndPredict(c.Request.Context(), req.Features)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, errorResponse{
				RequestID: id,
				Error:     "validation",
				Message:   err.Error(),
				Field:     verr.Field,
				Reason:    verr.Reason,
			})
			return
		}
		s.logger.Error("api prediction failed", "error", err, "request_id", id)
		c.JSON(http.StatusInternalServerError, errorResponse{
			RequestID: id,
			Error:     "inference",
			Message:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, predictResponse{
		RequestID:   id,
		Code:        result.Code,
		Label:       result.Label,
		Known:       result.Known(),
		Message:     result.Message(),
		PredictedAt: domain.Now(),
	})
}
