// Copyright 2026 FlowWatch Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 FlowWatch 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试与属性测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 手动时钟: ManualClock 同时实现 stream.Clock 与 stream.Scheduler，
    Advance 按时间顺序触发到期的重复定时器，用于无真实等待的检测测试
  - 日志断言: NewObservedLogger / CountContaining，基于 zaptest/observer
  - 异步断言: AssertEventuallyTrue / WaitFor，支持超时轮询

# 子包

  - testutil/mocks: RecordingReporter，记录全部 backpressure 事件并支持
    按类型过滤与配对校验

# 使用示例

	clock := testutil.NewManualClock(time.Unix(0, 0))
	logger, logs := testutil.NewObservedLogger(zapcore.DebugLevel)
	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, testutil.CountContaining(logs, "Backpressure detected"))
*/
package testutil
