// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供全局共享的错误类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 a2a、agent、llm、game
等上层模块提供统一的错误契约，以避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 Retryable 与反序列化出错字段标记

# 错误码

  - INVALID_INPUT / INVALID_WORD / UNKNOWN_ACTION / GAME_FINISHED — 对局输入与规则
  - RECEIVER_MISMATCH / DESERIALIZATION — A2A 协议
  - CAPABILITY_TIMEOUT / CAPABILITY_ERROR / NOT_CONNECTED — 文本生成能力
  - INVALID_TRANSITION — Agent 状态机
*/
package types
