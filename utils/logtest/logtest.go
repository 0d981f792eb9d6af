// Package logtest builds loggers for tests.
package logtest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"car-price-estimator/utils"
)

// New returns a logger that writes through t.
func New(t testing.TB) *utils.Logger {
	return utils.FromZap(zaptest.NewLogger(t))
}
