// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供测试共享的上下文与断言辅助。

# 核心能力

  - 上下文辅助: TestContext / CancellableContext，带上限并自动注册 Cleanup
  - 中断模拟: CancelDuringGenerate，生成途中取消上下文
  - 错误码断言: AssertErrorCode，检查 *types.Error 的错误码

# 子包

  - testutil/mocks: MockGenerator（文本生成能力），
    支持响应队列、错误注入与延迟模拟

# 使用示例

	ctx := testutil.TestContext(t)
	gen := mocks.NewMockGenerator().WithResponses("りんご", "ごりら")
	word, err := gen.Generate(ctx, prompt)
	testutil.AssertErrorCode(t, err, types.ErrCapability)
*/
package testutil
