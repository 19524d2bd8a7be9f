// Package game 驱动两个 Agent 之间的しりとり对局。
//
// [Game.Play] 让先手 Agent 出第一个词, 之后双方轮流接龙, 直到:
// 一方判负、有人说出以 ん 结尾的单词、达到最大回合数(平局),
// 或同一位置的非终局失败超过重试次数(该方判负)。
// 意外错误被捕获并报告为 error 结局, 不会使进程崩溃。
//
// 每个回合在 shiritori.turn span 中执行, 整局在 shiritori.game span 中。
// [Reporter] 输出控制台记录, [Result.SaveJSON] 保存对局日志。
package game
