// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/flowwatch/backpressure"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 背压指标收集器，实现 backpressure.Reporter
type Collector struct {
	// Episode 计数
	detectedTotal  *prometheus.CounterVec
	relievedTotal  *prometheus.CounterVec
	abandonedTotal *prometheus.CounterVec

	// Episode 时长与当前状态
	episodeDuration *prometheus.HistogramVec
	openEpisodes    *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器并注册到 reg；reg 为 nil 时使用默认 Registerer
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	labels := []string{"stage", "strategy"}

	c.detectedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backpressure",
			Name:      "episodes_detected_total",
			Help:      "Total number of backpressure episodes detected",
		},
		labels,
	)

	c.relievedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backpressure",
			Name:      "episodes_relieved_total",
			Help:      "Total number of backpressure episodes relieved by fresh demand",
		},
		labels,
	)

	c.abandonedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backpressure",
			Name:      "episodes_abandoned_total",
			Help:      "Total number of backpressure episodes still open when their stage stopped",
		},
		labels,
	)

	c.episodeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backpressure",
			Name:      "episode_duration_seconds",
			Help:      "Duration of relieved backpressure episodes in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		labels,
	)

	// 同名阶段的多次物化共享同一组标签，因此按 episode 计数而不是置 1/0
	c.openEpisodes = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backpressure",
			Name:      "open_episodes",
			Help:      "Number of backpressure episodes currently open",
		},
		labels,
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 事件记录
// =============================================================================

// Report 记录一次 episode 状态变化
func (c *Collector) Report(ev backpressure.Event) {
	strategy := string(ev.Strategy)

	switch ev.Kind {
	case backpressure.EventDetected:
		c.detectedTotal.WithLabelValues(ev.Stage, strategy).Inc()
		c.openEpisodes.WithLabelValues(ev.Stage, strategy).Inc()
	case backpressure.EventRelieved:
		c.relievedTotal.WithLabelValues(ev.Stage, strategy).Inc()
		c.episodeDuration.WithLabelValues(ev.Stage, strategy).Observe(ev.Duration.Seconds())
		c.openEpisodes.WithLabelValues(ev.Stage, strategy).Dec()
	case backpressure.EventAbandoned:
		c.abandonedTotal.WithLabelValues(ev.Stage, strategy).Inc()
		c.openEpisodes.WithLabelValues(ev.Stage, strategy).Dec()
	default:
		c.logger.Warn("unknown backpressure event", zap.String("kind", string(ev.Kind)))
	}
}
