// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的对局指标采集能力，覆盖
对局、出手、LLM 调用与 Agent 状态四个维度。

# 概述

Collector 通过 promauto.With 注册到调用方给定的 Registerer，
所有指标按 namespace 隔离。Collector 实现 game.Recorder，
可以直接交给 game.New 使用。

# 主要能力

  - 对局指标：按结局 (win/draw/error) 计数，回合数 Histogram。
  - 出手指标：按 agent/status 计数，出手耗时 Histogram。
  - LLM 指标：InstrumentGenerator 包装任意 llm.TextGenerator，
    按 provider/model/status 记录请求数与耗时。
  - Agent 指标：终态转换计数。
*/
package metrics
