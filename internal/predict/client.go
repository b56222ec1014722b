// Package predict is the HTTP client for the upstream prediction service.
package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tradeforge-io/signal-engine-go/internal/config"
	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/models"
	"github.com/tradeforge-io/signal-engine-go/internal/observability"
)

// Client fetches predictions over HTTP. A 404 or 204 response means the
// service has no call for the symbol, which is reported as a nil
// prediction with no error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient builds a prediction client from configuration.
func NewClient(cfg config.PredictorConfig, logger logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: cfg.ServiceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithComponent("predict_client"),
	}
}

type predictionResponse struct {
	Action         string  `json:"action"`
	Confidence     float64 `json:"confidence"`
	ExpectedReturn float64 `json:"expected_return"`
}

// Predict fetches the current directional call for a symbol and timeframe.
func (c *Client) Predict(ctx context.Context, symbol string, timeframe models.Timeframe) (*models.Prediction, error) {
	endpoint := fmt.Sprintf("%s/predictions/%s?timeframe=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(string(timeframe)))

	spanCtx, span := observability.StartSpan(ctx, observability.SpanOpExternalAPI, "predictor.predict")
	defer observability.FinishSpan(span, nil)

	req, err := http.NewRequestWithContext(spanCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WithError(closeErr).Debug("failed to close prediction response body")
		}
	}()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("prediction service error (%d): %s", resp.StatusCode, string(body))
	}

	var payload predictionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction response: %w", err)
	}

	return &models.Prediction{
		Action:         models.Signal(payload.Action),
		Confidence:     payload.Confidence,
		ExpectedReturn: payload.ExpectedReturn,
	}, nil
}
