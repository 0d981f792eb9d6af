// Package predictor provides the price-estimation capability behind a single
// interface so a loaded pipeline artifact, a remote inference service and
// test stubs are interchangeable.
package predictor

import (
	"context"

	"car-price-estimator/models"
)

// Predictor returns a price estimate, in lakhs, for one feature row.
type Predictor interface {
	Predict(ctx context.Context, row models.FeatureRow) (float64, error)
}

// Func adapts an ordinary function to the Predictor interface.
type Func func(ctx context.Context, row models.FeatureRow) (float64, error)

func (f Func) Predict(ctx context.Context, row models.FeatureRow) (float64, error) {
	return f(ctx, row)
}

// Named is implemented by predictors that report a label for metrics.
type Named interface {
	Name() string
}

// NameOf returns p's label, or "custom".
func NameOf(p Predictor) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return "custom"
}
