package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelClientMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewModelClientMetrics(reg)
	require.NotNil(t, m)

	m.ObserveRequest("anthropic", "claude-sonnet-4-5", "success", 1.2, 500, 200)
	m.ObserveRequest("anthropic", "claude-sonnet-4-5", "error", 0.3, 0, 0)

	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("anthropic", "claude-sonnet-4-5", "success"))
	assert.Equal(t, 1.0, count)
	count = testutil.ToFloat64(m.RequestsTotal.WithLabelValues("anthropic", "claude-sonnet-4-5", "error"))
	assert.Equal(t, 1.0, count)
}

func TestModelClientMetrics_NilReceiverIsNoOp(t *testing.T) {
	var m *ModelClientMetrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("anthropic", "claude-sonnet-4-5", "success", 1, 1, 1)
	})
}
