package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"car-price-estimator/models"
	"car-price-estimator/utils"
)

// RemotePredictor sends feature rows to an HTTP inference service that hosts
// the trained pipeline.
//
// Request:  {"instances": [{"Brand": "...", "model": "...", ...}]}
// Response: {"predictions": [12.34]}
type RemotePredictor struct {
	url        string
	httpClient *http.Client
	retry      *utils.RetryConfig
}

// NewRemotePredictor creates a client for the service at url. retry may be
// nil for a single attempt.
func NewRemotePredictor(url string, timeout time.Duration, retry *utils.RetryConfig) *RemotePredictor {
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	return &RemotePredictor{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

func (p *RemotePredictor) Name() string { return "remote" }

type remoteRequest struct {
	Instances []models.FeatureRow `json:"instances"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

// Predict implements Predictor. Transport errors and 5xx responses are
// retried; 4xx responses are not.
func (p *RemotePredictor) Predict(ctx context.Context, row models.FeatureRow) (float64, error) {
	body, err := json.Marshal(remoteRequest{Instances: []models.FeatureRow{row}})
	if err != nil {
		return 0, NewInferenceError("encode feature row", err)
	}

	var price float64
	err = p.retry.DoContext(ctx, "remote predict", func() error {
		var err error
		price, err = p.call(ctx, body)
		return err
	})
	if err != nil {
		var pe *PredictionError
		if errors.As(err, &pe) {
			return 0, pe
		}
		return 0, NewInferenceError("inference service unavailable", err)
	}
	return price, nil
}

func (p *RemotePredictor) call(ctx context.Context, body []byte) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return 0, utils.Permanent(NewInferenceError("build request", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var out remoteResponse
	decodeErr := json.Unmarshal(payload, &out)

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return 0, utils.Permanent(NewSchemaMismatchError(
			fmt.Sprintf("inference service rejected the feature row (%d)", resp.StatusCode), remoteErr(out)))
	case resp.StatusCode >= 500:
		if out.Error != "" {
			return 0, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, out.Error)
		}
		return 0, fmt.Errorf("inference service returned %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return 0, utils.Permanent(NewInferenceError(
			fmt.Sprintf("inference service returned %d", resp.StatusCode), remoteErr(out)))
	}

	if decodeErr != nil {
		return 0, utils.Permanent(NewInferenceError("decode response", decodeErr))
	}
	if len(out.Predictions) != 1 {
		return 0, utils.Permanent(NewInferenceError(
			fmt.Sprintf("expected 1 prediction, got %d", len(out.Predictions)), nil))
	}
	return out.Predictions[0], nil
}

func remoteErr(out remoteResponse) error {
	if out.Error == "" {
		return nil
	}
	return errors.New(out.Error)
}
