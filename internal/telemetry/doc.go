// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为しりとり对局提供 TracerProvider 和 MeterProvider。
//
// Init 把对局信息 (双方名字、最大回合数、模型) 写入 resource，
// 并注册 shiritori.a2a.messages 计数器；Providers.MessageObserver
// 为每个 Agent 的邮箱返回共享该计数器的观察者。
// 当遥测功能禁用时，使用全局 provider，不连接任何外部服务。
package telemetry
