package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/wildfire-damage-service/internal/domain"
	"github.com/couchcryptid/wildfire-damage-service/internal/observability"
)

// Client implements domain.Predictor against a model server that accepts
// pandas "split" frames on /invocations, such as an MLflow scoring server.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a model server client. endpoint is the server root, e.g.
// "http://localhost:5001".
func NewClient(endpoint string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Predict posts the batch to /invocations and returns the predicted class codes.
func (c *Client) Predict(ctx context.Context, batch domain.Table) ([]int, error) {
	start := time.Now()
	codes, err := c.invoke(ctx, batch)
	c.metrics.ModelServerDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ModelServerRequests.WithLabelValues("invocations", "error").Inc()
		return nil, err
	}
	c.metrics.ModelServerRequests.WithLabelValues("invocations", "success").Inc()
	return codes, nil
}

func (c *Client) invoke(ctx context.Context, batch domain.Table) ([]int, error) {
	body, err := json.Marshal(invocationRequest{DataframeSplit: batch})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/invocations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model server request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("model server error", "status", resp.StatusCode, "body", string(msg))
		return nil, fmt.Errorf("model server error: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out invocationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	codes := make([]int, len(out.Predictions))
	for i, p := range out.Predictions {
		code, err := p.Int64()
		if err != nil {
			// Some servers return class codes as floats, e.g. 4.0.
			f, ferr := p.Float64()
			if ferr != nil || f != float64(int64(f)) {
				return nil, fmt.Errorf("prediction %d: %q is not a class code", i, p.String())
			}
			code = int64(f)
		}
		codes[i] = int(code)
	}
	return codes, nil
}

// CheckReadiness calls GET /ping.
func (c *Client) CheckReadiness(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/ping", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ModelServerRequests.WithLabelValues("ping", "error").Inc()
		return fmt.Errorf("model server ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.metrics.ModelServerRequests.WithLabelValues("ping", "error").Inc()
		return fmt.Errorf("model server ping: status %d", resp.StatusCode)
	}
	c.metrics.ModelServerRequests.WithLabelValues("ping", "success").Inc()
	return nil
}

// Model server wire types.

type invocationRequest struct {
	DataframeSplit domain.Table `json:"dataframe_split"`
}

type invocationResponse struct {
	Predictions []json.Number `json:"predictions"`
}
