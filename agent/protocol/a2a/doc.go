// Package a2a 实现代理之间的本地邮箱协议 (Agent-to-Agent)。
//
// 每个代理持有一个 Protocol: 创建外发消息、在时限内把收到的消息分发给
// 注册的处理器、按插入顺序记录收发历史。消息以扁平键值结构序列化,
// 枚举字段输出为字符串标签, 未知标签在反序列化时一律拒绝。
// 本包不做网络 I/O。
package a2a
