// 版权所有 2026 FlowWatch Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的背压指标采集能力。

# 概述

Collector 实现 backpressure.Reporter，可与日志 Reporter 一起挂接到
任意数量的背压诊断阶段上。指标通过 promauto.With 注册到调用方提供的
Registerer（为 nil 时使用默认 Registerer），按 namespace 隔离，
按 stage/strategy 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：持有 Counter、Histogram、Gauge 向量指标，
    并发安全，可被多个阶段共享。

# 指标

  - <ns>_backpressure_episodes_detected_total：检测到的 episode 数。
  - <ns>_backpressure_episodes_relieved_total：被新需求解除的 episode 数。
  - <ns>_backpressure_episodes_abandoned_total：阶段终止时仍未结束的 episode 数。
  - <ns>_backpressure_episode_duration_seconds：已解除 episode 的时长分布。
  - <ns>_backpressure_open_episodes：当前未结束的 episode 数，
    detected 时加一，relieved 与 abandoned 时减一；同名阶段的多次物化累加。
*/
package metrics
