// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package llm 提供代理使用的文本生成能力抽象。

# 概述

代理只依赖 [TextGenerator]: 给定提示词, 返回一段文本或错误。
具体模型接入放在 providers 子包中, 测试使用 testutil/mocks 中的替身。

# 核心接口

  - [TextGenerator]：文本生成能力
  - [GeneratorFunc]：函数适配器
  - [RateLimited]：基于 golang.org/x/time/rate 的限流包装

# 有界调用

[Generate] 在给定时限内调用生成能力, 超时返回 CAPABILITY_TIMEOUT,
其他失败返回 CAPABILITY_ERROR, 供上层区分处理。
*/
package llm
