package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"car-price-estimator/metrics"
	"car-price-estimator/models"
	"car-price-estimator/predictor"
	"car-price-estimator/utils"
)

// PredictionService turns a completed selection into a price estimate.
// Every failure is returned as a failed PredictionResult; Predict never
// returns an error and never panics.
type PredictionService struct {
	predictor predictor.Predictor
	timeout   time.Duration
	logger    *utils.Logger
}

// NewPredictionService wraps p. A zero timeout means no deadline beyond the
// caller's context.
func NewPredictionService(p predictor.Predictor, timeout time.Duration, logger *utils.Logger) *PredictionService {
	return &PredictionService{predictor: p, timeout: timeout, logger: logger}
}

// Predict builds the feature row for sel, invokes the predictor and rounds
// the estimate to two decimals.
func (s *PredictionService) Predict(ctx context.Context, sel models.Selection) models.PredictionResult {
	row := models.NewFeatureRow(sel)
	name := predictor.NameOf(s.predictor)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	price, err := s.invoke(ctx, row)
	metrics.PredictionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err == nil && (math.IsNaN(price) || math.IsInf(price, 0)) {
		err = predictor.NewInferenceError("pipeline produced a non-finite estimate", nil)
	}
	if err != nil {
		code := predictor.CodeOf(err)
		metrics.PredictionsTotal.WithLabelValues(string(code)).Inc()
		s.logger.Error("[predict] %s (%s) failed: %s: %v", sel.Brand, sel.Model, code, err)
		return models.PredictionResult{
			OK:       false,
			Brand:    sel.Brand,
			Model:    sel.Model,
			Code:     string(code),
			Message:  "An error occurred: " + err.Error(),
			Features: row,
		}
	}

	price = round2(price)
	metrics.PredictionsTotal.WithLabelValues("OK").Inc()
	s.logger.Info("[predict] %s (%s) -> %.2f lakhs", sel.Brand, sel.Model, price)
	return models.PredictionResult{
		OK:         true,
		Brand:      sel.Brand,
		Model:      sel.Model,
		PriceLakhs: price,
		Message: fmt.Sprintf("The predicted price of the %s (%s) car is: ₹%s lakhs",
			sel.Brand, sel.Model, strconv.FormatFloat(price, 'f', -1, 64)),
		Features: row,
	}
}

// invoke calls the predictor, converting a panic into an inference failure.
func (s *PredictionService) invoke(ctx context.Context, row models.FeatureRow) (price float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			price = 0
			err = predictor.NewInferenceError(fmt.Sprintf("predictor panicked: %v", r), nil)
		}
	}()
	return s.predictor.Predict(ctx, row)
}

// round2 rounds through the shortest two-decimal representation of f, so
// values stored just below a half (2.675 is 2.67499...) round down.
func round2(f float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	if err != nil {
		return f
	}
	return r
}
