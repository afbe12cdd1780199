// =============================================================================
// 📦 FlowWatch 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Monitor:   DefaultMonitorConfig(),
		Workload:  DefaultWorkloadConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultMonitorConfig 返回默认背压诊断配置
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Strategy:  "threshold",
		Threshold: 40 * time.Millisecond,
		LogLevel:  "debug",
		Name:      "pipeline",
	}
}

// DefaultWorkloadConfig 返回默认演示负载配置
func DefaultWorkloadConfig() WorkloadConfig {
	return WorkloadConfig{
		Pipelines:     2,
		Elements:      50,
		Rate:          50,
		Burst:         1,
		ConsumerDelay: 60 * time.Millisecond,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "debug",
		Format:           "console",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:         false,
		Addr:            ":9091",
		Namespace:       "flowwatch",
		ShutdownTimeout: 5 * time.Second,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        false,
		OTLPEndpoint:   "localhost:4317",
		ServiceName:    "flowwatch",
		SampleRate:     1.0,
		ExportInterval: 15 * time.Second,
	}
}
