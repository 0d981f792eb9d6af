package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-price-estimator/models"
	"car-price-estimator/predictor"
	"car-price-estimator/utils/logtest"
)

func bmwSelection() models.Selection {
	return models.Selection{
		Brand:             "BMW",
		FuelType:          models.FuelPetrol,
		BodyType:          models.BodySedan,
		Model:             "5 Series",
		Transmission:      "Automatic",
		OwnerNo:           1,
		ModelYear:         2019,
		InsuranceValidity: "Comprehensive",
		KmsDriven:         20000,
		Mileage:           15,
		Seats:             5,
		Color:             "White",
		City:              "Delhi",
	}
}

func fixedPredictor(price float64, err error) predictor.Func {
	return func(ctx context.Context, row models.FeatureRow) (float64, error) {
		return price, err
	}
}

func TestPredictRoundsAndFormats(t *testing.T) {
	var seen models.FeatureRow
	p := predictor.Func(func(ctx context.Context, row models.FeatureRow) (float64, error) {
		seen = row
		return 12.345, nil
	})
	svc := NewPredictionService(p, 0, logtest.New(t))

	sel := bmwSelection()
	res := svc.Predict(context.Background(), sel)

	require.True(t, res.OK, res.Message)
	assert.Equal(t, 12.35, res.PriceLakhs)
	assert.Equal(t, "BMW", res.Brand)
	assert.Equal(t, "5 Series", res.Model)
	assert.Equal(t, "The predicted price of the BMW (5 Series) car is: ₹12.35 lakhs", res.Message)
	assert.Empty(t, res.Code)
	assert.Equal(t, models.NewFeatureRow(sel), seen)
	assert.Equal(t, seen, res.Features)
}

func TestPredictFeatureRowOrder(t *testing.T) {
	row := models.NewFeatureRow(bmwSelection())

	assert.Equal(t, []string{
		"Brand", "model", "Fuel type", "body type", "transmission", "ownerNo",
		"modelYear", "Insurance Validity", "Kms Driven", "Mileage", "Seats",
		"Color", "City",
	}, row.Columns())
	assert.Equal(t, []any{
		"BMW", "5 Series", "Petrol", "Sedan", "Automatic", 1,
		2019, "Comprehensive", 20000, 15, 5,
		"White", "Delhi",
	}, row.Values())
}

func TestPredictArtifactMissing(t *testing.T) {
	p := predictor.NewArtifactPredictor(filepath.Join(t.TempDir(), "missing.json"), false)
	svc := NewPredictionService(p, 0, logtest.New(t))

	sel := bmwSelection()
	before := sel
	res := svc.Predict(context.Background(), sel)

	assert.False(t, res.OK)
	assert.Equal(t, string(predictor.ErrCodeArtifactLoadFailed), res.Code)
	assert.Contains(t, res.Message, "An error occurred: ")
	assert.Zero(t, res.PriceLakhs)
	assert.Equal(t, before, sel)

	// a second attempt fails the same way rather than wedging
	again := svc.Predict(context.Background(), sel)
	assert.Equal(t, res.Code, again.Code)
}

func TestPredictFailures(t *testing.T) {
	tests := []struct {
		name     string
		p        predictor.Predictor
		wantCode predictor.ErrorCode
	}{
		{
			name:     "schema mismatch",
			p:        fixedPredictor(0, predictor.NewSchemaMismatchError("missing column Seats", nil)),
			wantCode: predictor.ErrCodeSchemaMismatch,
		},
		{
			name:     "unknown category",
			p:        fixedPredictor(0, predictor.NewInferenceError(`found unknown category "Tesla"`, nil)),
			wantCode: predictor.ErrCodeInferenceFailed,
		},
		{
			name:     "plain error",
			p:        fixedPredictor(0, errors.New("boom")),
			wantCode: predictor.ErrCodeInferenceFailed,
		},
		{
			name:     "not a number",
			p:        fixedPredictor(math.NaN(), nil),
			wantCode: predictor.ErrCodeInferenceFailed,
		},
		{
			name:     "infinite",
			p:        fixedPredictor(math.Inf(1), nil),
			wantCode: predictor.ErrCodeInferenceFailed,
		},
		{
			name: "panic",
			p: predictor.Func(func(ctx context.Context, row models.FeatureRow) (float64, error) {
				panic("index out of range")
			}),
			wantCode: predictor.ErrCodeInferenceFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPredictionService(tt.p, 0, logtest.New(t))
			var res models.PredictionResult
			require.NotPanics(t, func() {
				res = svc.Predict(context.Background(), bmwSelection())
			})
			assert.False(t, res.OK)
			assert.Equal(t, string(tt.wantCode), res.Code)
			assert.Contains(t, res.Message, "An error occurred: ")
			assert.Equal(t, "BMW", res.Brand)
		})
	}
}

func TestPredictTimeout(t *testing.T) {
	p := predictor.Func(func(ctx context.Context, row models.FeatureRow) (float64, error) {
		select {
		case <-ctx.Done():
			return 0, predictor.NewInferenceError("inference cancelled", ctx.Err())
		case <-time.After(5 * time.Second):
			return 1, nil
		}
	})
	svc := NewPredictionService(p, 20*time.Millisecond, logtest.New(t))

	start := time.Now()
	res := svc.Predict(context.Background(), bmwSelection())

	assert.False(t, res.OK)
	assert.Equal(t, string(predictor.ErrCodeInferenceFailed), res.Code)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRound2MatchesDecimalRounding(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{12.345, 12.35},
		{2.675, 2.67},
		{0.125, 0.12},
		{1.005, 1},
		{14.5, 14.5},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
}

func TestPredictZeroPriceKeepsField(t *testing.T) {
	svc := NewPredictionService(fixedPredictor(0.001, nil), 0, logtest.New(t))
	res := svc.Predict(context.Background(), bmwSelection())
	require.True(t, res.OK)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"price_lakhs":0`)
}
