// Package config 提供しりとり对局的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → .env 文件 → 环境变量 的顺序叠加,
// 结果是一个显式传递的 [Config] 值, 包内不保存任何全局状态。
// 兼容旧的环境变量名 (SHIRITORI_MAX_TURNS, GOOGLE_API_KEY 等)。
package config
