package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/flowwatch/backpressure"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func event(kind backpressure.EventKind, stage string, d time.Duration) backpressure.Event {
	return backpressure.Event{
		Kind:      kind,
		Stage:     stage,
		Strategy:  backpressure.StrategyThreshold,
		EpisodeID: "ep",
		Duration:  d,
	}
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), prometheus.NewRegistry(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.detectedTotal)
	assert.NotNil(t, collector.relievedTotal)
	assert.NotNil(t, collector.abandonedTotal)
	assert.NotNil(t, collector.episodeDuration)
	assert.NotNil(t, collector.openEpisodes)
}

func TestNewCollector_DefaultRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(nextTestNamespace(), nil, nil)
	})
}

func TestCollector_EpisodeLifecycle(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), prometheus.NewRegistry(), zap.NewNop())

	collector.Report(event(backpressure.EventDetected, "p-0", 0))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.detectedTotal.WithLabelValues("p-0", "threshold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.openEpisodes.WithLabelValues("p-0", "threshold")))

	collector.Report(event(backpressure.EventRelieved, "p-0", 60*time.Millisecond))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.relievedTotal.WithLabelValues("p-0", "threshold")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.openEpisodes.WithLabelValues("p-0", "threshold")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.episodeDuration))
}

func TestCollector_AbandonedClosesEpisode(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), prometheus.NewRegistry(), zap.NewNop())

	collector.Report(event(backpressure.EventDetected, "p-1", 0))
	collector.Report(event(backpressure.EventAbandoned, "p-1", time.Second))

	assert.Equal(t, 0.0, testutil.ToFloat64(collector.openEpisodes.WithLabelValues("p-1", "threshold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.abandonedTotal.WithLabelValues("p-1", "threshold")))
	assert.Zero(t, testutil.ToFloat64(collector.relievedTotal.WithLabelValues("p-1", "threshold")))
	// abandoned episodes are not observed as relieved durations
	assert.Zero(t, testutil.CollectAndCount(collector.episodeDuration))
}

func TestCollector_OverlappingEpisodesSameStage(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), prometheus.NewRegistry(), zap.NewNop())
	open := collector.openEpisodes.WithLabelValues("shared", "threshold")

	// two materializations of one source report under the same stage name
	collector.Report(event(backpressure.EventDetected, "shared", 0))
	collector.Report(event(backpressure.EventDetected, "shared", 0))
	assert.Equal(t, 2.0, testutil.ToFloat64(open))

	collector.Report(event(backpressure.EventRelieved, "shared", 10*time.Millisecond))
	assert.Equal(t, 1.0, testutil.ToFloat64(open))

	collector.Report(event(backpressure.EventAbandoned, "shared", 20*time.Millisecond))
	assert.Equal(t, 0.0, testutil.ToFloat64(open))
}

func TestCollector_Exposition(t *testing.T) {
	ns := nextTestNamespace()
	reg := prometheus.NewPedanticRegistry()
	collector := NewCollector(ns, reg, zap.NewNop())

	collector.Report(event(backpressure.EventDetected, "p-0", 0))
	collector.Report(event(backpressure.EventRelieved, "p-0", 100*time.Millisecond))

	expected := fmt.Sprintf(`
# HELP %[1]s_backpressure_episodes_detected_total Total number of backpressure episodes detected
# TYPE %[1]s_backpressure_episodes_detected_total counter
%[1]s_backpressure_episodes_detected_total{stage="p-0",strategy="threshold"} 1
`, ns)
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), ns+"_backpressure_episodes_detected_total")
	require.NoError(t, err)

	expected = fmt.Sprintf(`
# HELP %[1]s_backpressure_open_episodes Number of backpressure episodes currently open
# TYPE %[1]s_backpressure_open_episodes gauge
%[1]s_backpressure_open_episodes{stage="p-0",strategy="threshold"} 0
`, ns)
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), ns+"_backpressure_open_episodes")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count) // detected, relieved, duration, gauge
}

func TestCollector_ConcurrentStages(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), prometheus.NewRegistry(), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(stage string) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.Report(event(backpressure.EventDetected, stage, 0))
				collector.Report(event(backpressure.EventRelieved, stage, time.Millisecond))
			}
		}(fmt.Sprintf("p-%d", i))
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		stage := fmt.Sprintf("p-%d", i)
		assert.Equal(t, 100.0, testutil.ToFloat64(collector.detectedTotal.WithLabelValues(stage, "threshold")))
		assert.Equal(t, 0.0, testutil.ToFloat64(collector.openEpisodes.WithLabelValues(stage, "threshold")))
	}
}
