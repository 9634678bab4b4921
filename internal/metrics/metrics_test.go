package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTick()
	c.RecordTick()
	c.RecordTickSkipped()
	c.RecordLocationFailure()
	c.RecordNotification()
	c.RecordTransition("enter")
	c.RecordTransition("enter")
	c.RecordTransition("exit")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.ticks))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.ticksSkipped))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.locationFailures))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.notifications))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.transitions.WithLabelValues("enter")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.transitions.WithLabelValues("exit")))
}

func TestCollector_RegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTick()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "fencewatch_ticks_total")
}
