// Copyright (c) FlowWatch Authors.
// Licensed under the MIT License.

/*
Package backpressure 提供可挂接到单入单出流水线上的背压诊断阶段，
检测、度量并报告下游消费者跟不上上游生产者的时间段（episode）。

# 概述

诊断阶段对数据完全透明：不修改、不丢弃、不重排、不缓冲任何元素，
只通过旁路输出日志、指标与链路追踪。一个阶段同一时刻至多存在一个
未结束的 episode，episode 不会嵌套或重叠。

# 检测策略

  - ThresholdDetector：元素转发后若超过 threshold（默认 40ms）仍无新的
    下游需求，才判定为背压；依赖周期性定时器，过滤调度抖动。
  - InstantDetector：上游元素到达时若下游没有未满足的需求，立即判定为
    背压；无需定时器，对任意短暂的需求间隙都敏感。

两种策略实现同一个 Strategy 接口，由 Stage 统一适配到 stream 运行时。

# 核心类型

  - Config / DefaultConfig：策略、阈值、日志级别与显示名称
  - Stage：stream.Stage 实现，每次物化创建独立的 Strategy
  - Reporter / Event：旁路事件：detected、relieved、abandoned
  - LogReporter：基于 zap 的日志输出（abandoned 不记录日志）
  - Attach / Alert / Monitor：面向流水线作者的挂接操作

# 生命周期

上游完成、上游失败或下游取消都会立即终止阶段；终止时仍处于打开状态的
episode 只以 EventAbandoned 通知 Reporter，不会输出 relieved 日志。
*/
package backpressure
