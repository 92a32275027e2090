package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegistered(t *testing.T) {
	Cycles.WithLabelValues("BTC/USDT", "ok").Inc()
	Equity.Set(1000)

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["breakout_cycles_total"])
	assert.True(t, names["breakout_equity"])
	assert.Equal(t, 1000.0, testutil.ToFloat64(Equity))
}
