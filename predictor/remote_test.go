package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-price-estimator/utils"
	"car-price-estimator/utils/logtest"
)

func newRemote(t *testing.T, url string, attempts int) *RemotePredictor {
	return NewRemotePredictor(url, 2*time.Second, &utils.RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		Logger:      logtest.New(t),
	})
}

func TestRemotePredictorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Instances []map[string]any `json:"instances"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Instances, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "BMW", req.Instances[0]["Brand"])
		assert.Equal(t, "5 Series", req.Instances[0]["model"])
		assert.EqualValues(t, 20000, req.Instances[0]["Kms Driven"])

		_, _ = w.Write([]byte(`{"predictions":[12.345]}`))
	}))
	defer srv.Close()

	got, err := newRemote(t, srv.URL, 1).Predict(context.Background(), testRow())
	require.NoError(t, err)
	assert.Equal(t, 12.345, got)
}

func TestRemotePredictorRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"predictions":[7.5]}`))
	}))
	defer srv.Close()

	got, err := newRemote(t, srv.URL, 3).Predict(context.Background(), testRow())
	require.NoError(t, err)
	assert.Equal(t, 7.5, got)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRemotePredictorGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	_, err := newRemote(t, srv.URL, 2).Predict(context.Background(), testRow())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInference)
	assert.Contains(t, err.Error(), "model not loaded")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRemotePredictorRejectedRowIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"Found unknown categories ['Tesla'] in column 0"}`))
	}))
	defer srv.Close()

	_, err := newRemote(t, srv.URL, 3).Predict(context.Background(), testRow())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "Tesla")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRemotePredictorBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	_, err := newRemote(t, srv.URL, 3).Predict(context.Background(), testRow())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInference)
}

func TestRemotePredictorMalformedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"predictions":[12.3`))
	}))
	defer srv.Close()

	_, err := newRemote(t, srv.URL, 3).Predict(context.Background(), testRow())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInference)
	assert.Contains(t, err.Error(), "decode response")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRemotePredictorUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newRemote(t, url, 1).Predict(context.Background(), testRow())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInference)
	assert.Contains(t, err.Error(), "unavailable")
}
