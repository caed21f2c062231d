package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PredictionService validates raw field values and predicts a damage label.
type PredictionService interface {
	Schema() *domain.FeatureSchema
	BuildAndPredict(ctx context.Context, raw map[string]any) (domain.PredictionResult, error)
}

// Server serves the prediction form, the JSON API, and the health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        PredictionService
	logger     *slog.Logger
}

// NewServer creates the gin engine and wraps it in an http.Server.
func NewServer(addr string, svc PredictionService, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	s := &Server{svc: svc, logger: logger}

	r := gin.New()
	r.Use(requestIDMiddleware(), slogMiddleware(logger), recoveryMiddleware(logger))
	r.SetHTMLTemplate(template.Must(template.New("form.html").Parse(formHTML)))

	r.GET("/healthz", gin.WrapF(sharedobs.LivenessHandler()))
	r.GET("/readyz", gin.WrapF(sharedobs.ReadinessHandler(ready)))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", s.showForm)
	r.POST("/", s.submitForm)

	api := r.Group("/api/v1")
	api.GET("/schema", s.getSchema)
	api.POST("/predict", s.predict)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
