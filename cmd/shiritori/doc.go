// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供しりとり对局的命令行入口。

# 概述

cmd/shiritori 加载配置（YAML、.env、环境变量与命令行参数），
连接 Gemini 文本生成能力，创建两个 ShiritoriAgent 并运行一局游戏，
对局记录输出到标准输出，可选保存为 JSON 文件。

# 主要能力

  - 子命令：play（开始一局）、version、help
  - 结构化日志（zap），级别与格式来自 log 配置
  - Prometheus 指标：--metrics-addr 时在独立端口暴露 /metrics
  - OpenTelemetry：对局与回合 span，A2A 消息计数
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
