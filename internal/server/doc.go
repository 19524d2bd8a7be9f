// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理对局期间暴露 Prometheus 指标的 HTTP 服务器。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与异步错误通道，
    提供 Start/Shutdown/Errors 等生命周期方法。
  - Config：监听地址、读写超时与优雅关闭超时。

# 主要能力

  - NewMetricsManager 在给定 Registry 上挂载 /metrics 与 /healthz。
  - 非阻塞启动，Addr 返回实际监听地址（支持 ":0"）。
  - Shutdown 幂等，未启动时直接返回。
*/
package server
