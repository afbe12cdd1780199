// Copyright (c) FlowWatch Authors.
// Licensed under the MIT License.

/*
Package stream 提供一个最小化的、按需拉取（demand-driven）的单入单出流水线运行时，
用于承载 backpressure 等诊断阶段。

# 概述

每个 Stage 在物化时创建一个 Logic，并由独立的解释器 goroutine 顺序调度其全部回调
（push / pull / 完成 / 失败 / 取消 / 定时器），因此 Logic 内部无需加锁。
上下游之间遵循"一次请求、至多一个元素"的协议。

# 核心接口与类型

  - Source / Subscriber / Subscription：按需拉取的发布订阅协议
  - Stage / Logic / BaseLogic：阶段定义与回调处理器（默认恒等转发）
  - StageContext：Push、Emit、Pull、CompleteStage、FailStage、定时器
  - Clock / Scheduler：可注入的时钟与重复定时能力
  - Sink / Run / RunAll：驱动流水线运行直至完成
  - InlineFunc：在投递协程上执行的非阻塞 Sink（Collect、Ignore），先补需求再返回

# 主要能力

  - Via 将任意 Stage 挂接到 Source 之后，形成新的 Source。
  - Emit 提供宿主侧的需求排队：下游无需求时暂存元素，待下次需求时投递。
  - 上游失败原样传递给 Run 的调用方；Sink 返回 ErrStop 视为正常取消。
*/
package stream
