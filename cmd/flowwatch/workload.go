package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/flowwatch/backpressure"
	"github.com/BaSui01/flowwatch/config"
	"github.com/BaSui01/flowwatch/stream"
)

// =============================================================================
// 🚰 演示流水线
// =============================================================================

// buildPipelines 按配置构建 cfg.Workload.Pipelines 条流水线:
// 限速计数源 → 背压诊断阶段 → 慢消费者
func buildPipelines(cfg *config.Config, logger *zap.Logger, reporters ...backpressure.Reporter) ([]stream.Pipeline, error) {
	detector, err := cfg.Monitor.Detector()
	if err != nil {
		return nil, err
	}

	w := cfg.Workload
	pipelines := make([]stream.Pipeline, 0, w.Pipelines)
	for i := 0; i < w.Pipelines; i++ {
		limiter := rate.NewLimiter(rate.Limit(w.Rate), w.Burst)
		src := stream.FromFunc(stream.Throttle(limiter, counter(w.Elements)))

		stageCfg := detector
		stageCfg.Name = cfg.Monitor.StageName(i)
		watched, err := backpressure.Attach(src, stageCfg,
			backpressure.WithLogger(logger),
			backpressure.WithReporter(reporters...),
		)
		if err != nil {
			return nil, fmt.Errorf("pipeline %d: %w", i, err)
		}

		pipelines = append(pipelines, stream.Bind(watched, slowConsumer(w.ConsumerDelay)))
	}
	return pipelines, nil
}

// counter 生成 0, 1, 2, ...，limit 为 0 时不限数量
func counter(limit int) stream.Generator[int] {
	n := 0
	return func(context.Context) (int, error) {
		if limit > 0 && n >= limit {
			return 0, stream.ErrExhausted
		}
		n++
		return n - 1, nil
	}
}

// slowConsumer 每个元素耗时 delay
func slowConsumer(delay time.Duration) stream.Sink[int] {
	return stream.SinkFunc[int](func(ctx context.Context, _ int) error {
		if delay <= 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}
