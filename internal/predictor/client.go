// Package predictor wraps the external symptom-analysis service behind a
// small interface so the prediction flow can be tested with a mock.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Prediction is the payload the external model returns for a symptom set.
type Prediction struct {
	PredictedDisease string   `json:"predicted_disease"`
	Description      string   `json:"description"`
	Precautions      []string `json:"precautions"`
	Medications      []string `json:"medications"`
	Workout          []string `json:"workout"`
	Diets            []string `json:"diets"`
}

// Client is the symptom-analysis contract.
type Client interface {
	PredictDisease(ctx context.Context, symptoms []string) (*Prediction, error)
}

// HTTPClient calls the prediction service over its REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a prediction service client.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("prediction service baseURL is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// PredictDisease submits the symptom list and returns the model's prediction.
// Any non-200 response or an empty predicted disease is an error; the call is
// never retried.
func (c *HTTPClient) PredictDisease(ctx context.Context, symptoms []string) (*Prediction, error) {
	payload, err := json.Marshal(map[string][]string{"symptoms": symptoms})
	if err != nil {
		return nil, fmt.Errorf("failed to encode symptoms: %w", err)
	}

	url := c.baseURL + "/predict-disease"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("prediction request failed", zap.Error(err))
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("prediction request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)),
		)
		return nil, fmt.Errorf("prediction request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result Prediction
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode prediction response: %w", err)
	}
	if result.PredictedDisease == "" {
		return nil, fmt.Errorf("prediction response missing predicted_disease")
	}

	c.logger.Info("disease prediction completed",
		zap.String("predicted_disease", result.PredictedDisease),
		zap.Int("symptom_count", len(symptoms)),
		zap.Duration("processing_time", time.Since(startTime)),
	)
	return &result, nil
}
