// =============================================================================
// FlowWatch 主入口
// =============================================================================
// 运行一组带背压诊断阶段的演示流水线，并可选暴露 Prometheus 指标与 OTLP 遥测
//
// 使用方法:
//
//	flowwatch run                       # 使用默认配置运行
//	flowwatch run --config config.yaml  # 指定配置文件
//	flowwatch version                   # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/flowwatch/backpressure"
	"github.com/BaSui01/flowwatch/config"
	"github.com/BaSui01/flowwatch/internal/metrics"
	"github.com/BaSui01/flowwatch/internal/server"
	"github.com/BaSui01/flowwatch/internal/telemetry"
	"github.com/BaSui01/flowwatch/stream"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if err := runWorkload(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ run 命令
// =============================================================================

func runWorkload(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, err := config.NewLoader().
		WithConfigPath(*configPath).
		WithValidator((*config.Config).Validate).
		Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting FlowWatch",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("strategy", cfg.Monitor.Strategy),
		zap.Int("pipelines", cfg.Workload.Pipelines),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Metrics.ShutdownTimeout)
		defer cancel()
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	reporters, err := buildReporters(cfg, otelProviders, logger)
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		ms, err := startMetricsServer(cfg.Metrics, reporters.registry, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := ms.Shutdown(context.Background()); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case err := <-ms.Errors():
				logger.Error("metrics server exited, stopping pipelines", zap.Error(err))
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	pipelines, err := buildPipelines(cfg, logger, reporters.list...)
	if err != nil {
		return err
	}

	start := time.Now()
	err = stream.RunAll(ctx, pipelines...)
	switch {
	case err == nil:
		logger.Info("FlowWatch finished", zap.Duration("elapsed", time.Since(start)))
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("FlowWatch stopped", zap.Duration("elapsed", time.Since(start)))
		return nil
	default:
		logger.Error("pipeline failed", zap.Error(err))
		return err
	}
}

// reporterSet 背压事件的附加报告器
type reporterSet struct {
	registry *prometheus.Registry
	list     []backpressure.Reporter
}

func buildReporters(cfg *config.Config, p *telemetry.Providers, logger *zap.Logger) (*reporterSet, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	set := &reporterSet{
		registry: reg,
		list:     []backpressure.Reporter{metrics.NewCollector(cfg.Metrics.Namespace, reg, logger)},
	}

	if cfg.Telemetry.Enabled {
		otelReporter, err := telemetry.NewReporter(p.TracerProvider(), p.MeterProvider(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry reporter: %w", err)
		}
		set.list = append(set.list, otelReporter)
	}
	return set, nil
}

func startMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry, logger *zap.Logger) (*server.Manager, error) {
	srvCfg := server.DefaultConfig()
	srvCfg.Addr = cfg.Addr
	srvCfg.ShutdownTimeout = cfg.ShutdownTimeout

	ms := server.NewMetricsManager(reg, srvCfg, logger)
	if err := ms.Start(); err != nil {
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	logger.Info("metrics endpoint ready", zap.String("addr", ms.Addr()))
	return ms, nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("FlowWatch %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`FlowWatch - backpressure diagnostics for demand-driven pipelines

Usage:
  flowwatch <command> [options]

Commands:
  run       Run the demo pipelines with backpressure detection
  version   Show version information
  help      Show this help message

Options for 'run':
  --config <path>   Path to configuration file (YAML)

Environment:
  FLOWWATCH_MONITOR_STRATEGY        threshold | instant
  FLOWWATCH_MONITOR_THRESHOLD       e.g. 40ms
  FLOWWATCH_WORKLOAD_CONSUMER_DELAY e.g. 60ms
  FLOWWATCH_METRICS_ENABLED         true | false

Examples:
  flowwatch run
  flowwatch run --config /etc/flowwatch/config.yaml
  FLOWWATCH_MONITOR_STRATEGY=instant flowwatch run
  flowwatch version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
