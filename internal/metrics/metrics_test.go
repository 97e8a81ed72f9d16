package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/evalgraph/internal/builder"
	"github.com/vk/evalgraph/internal/depsgraph"
	"github.com/vk/evalgraph/internal/depsnode"
	"github.com/vk/evalgraph/internal/prune"
)

func TestMetrics_ObserveBuild(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := New(reg)

	res := &builder.Result{
		Stats:    depsgraph.Stats{IDNodes: 3, Components: 12, Operations: 40, Relations: 55},
		Pruned:   prune.Report{RemovedRelations: 4},
		Cyclic:   []*depsnode.Relation{{}, {}},
		Removed:  1,
		Skipped:  2,
		Duration: 3 * time.Millisecond,
	}
	m.ObserveBuild(res, nil)
	m.ObserveBuild(res, nil)
	m.ObserveBuild(nil, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BuildsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BuildsTotal.WithLabelValues("error")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.Nodes.WithLabelValues("operation")))
	assert.Equal(t, 55.0, testutil.ToFloat64(m.Relations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CyclicRelations))
	// Counters accumulate across builds, gauges describe the last one.
	assert.Equal(t, 8.0, testutil.ToFloat64(m.PrunedRelations))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.SkippedRelations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RemovedIDNodes))

	count, err := testutil.GatherAndCount(reg, "evalgraph_build_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_ObserveNotification(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.ObserveNotification(nil)
	m.ObserveNotification(errors.New("offline"))
	m.ObserveNotification(errors.New("offline"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Notifications.WithLabelValues("error")))
}

func TestMetrics_DoubleRegistrationPanics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
