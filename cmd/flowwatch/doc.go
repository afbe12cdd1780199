// Copyright (c) FlowWatch Authors.
// Licensed under the MIT License.

/*
Package main 提供 FlowWatch 演示程序入口。

# 概述

cmd/flowwatch 启动若干条并发流水线（限速计数源 → 背压诊断阶段 →
慢消费者），用于观察 threshold 与 instant 两种检测策略的日志输出。
程序支持 YAML 配置文件与 FLOWWATCH_ 前缀的环境变量、结构化日志（zap）、
Prometheus 指标端点以及 OTLP 遥测导出。

# 主要能力

  - 子命令：run（运行流水线）、version、help
  - 流水线：每条流水线的阶段名为 <monitor.name>-<i>
  - Metrics 服务器：独立端口暴露 /metrics 与 /healthz
  - 优雅关闭：SIGINT/SIGTERM → 取消流水线 → 关闭 Metrics → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
