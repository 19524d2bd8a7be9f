// Copyright 2024 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be
// found in the LICENSE file.

/*
Package agent 实现下しりとり(日语接龙)的 Agent。

# 概述

[ShiritoriAgent] 持有一局游戏的状态(已用单词、当前单词、出手次数),
向文本生成能力索取候选单词, 清洗并校验后通过 A2A 邮箱发给对手。
规则违例与生成失败不会作为 error 返回, 而是以 [TurnResult] 的形式
交给编排器判定胜负。

# 出手

  - start: 生成开局单词
  - respond: 接对手的单词, 依次检查 形式 → 首字 → 重复 → ん 结尾,
    任一失败即判对手胜; ん 结尾时结果中仍带有该单词

# 状态机

	idle → playing → {won, lost, drawn, errored}

idle 可以直接进入终态; 终态只能通过 Reset 回到 idle。

# 单词规则

[CleanWord] 去掉标点、空白与括号, 只保留平假名;
[ValidatePreviousWord] 拒绝以 ん 结尾的单词。
*/
package agent
