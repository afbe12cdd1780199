// Package config 提供 FlowWatch 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（前缀 FLOWWATCH_）的顺序加载，
// 覆盖背压诊断阶段、演示负载、日志、Prometheus 指标与 OpenTelemetry 遥测。
// 背压阶段的配置在挂接时固定，运行期间不支持热重载。
package config
