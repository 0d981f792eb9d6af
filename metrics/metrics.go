package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_predictions_total",
			Help: "Total number of price predictions by outcome code",
		},
		[]string{"code"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "car_price_prediction_duration_seconds",
			Help:    "Duration of a prediction call in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"predictor"},
	)

	PredictionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_prediction_cache_lookups_total",
			Help: "Prediction cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	FormTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "car_price_form_transitions_total",
			Help: "Form field edits by field and result",
		},
		[]string{"field", "result"},
	)

	DatasetListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "car_price_dataset_listings",
			Help: "Number of reference listings loaded",
		},
	)
)
