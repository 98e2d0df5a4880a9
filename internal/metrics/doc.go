// 版权所有 2024 GuardFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的全链路指标采集能力，覆盖
扫描、静态分析、隔离执行、裁决与 HTTP 五大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标。指标工厂绑定
到调用方注入的 Registerer，默认使用全局 Registry；测试中注入独立
Registry 即可避免重复注册冲突。所有指标按 namespace 隔离，支持
多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 向量指标，按管线阶段分组管理。

# 主要能力

  - 扫描指标：检出总数按 category/severity 分组，扫描耗时 Histogram。
  - 分析指标：拒绝总数按 rule_id 分组。
  - 执行指标：执行总数按 status 分组、执行耗时 Histogram、
    输出截断计数、执行槽位占用 Gauge 与限流计数。
  - 裁决指标：裁决总数按 disposition 分组。
  - HTTP 指标：请求总数、请求耗时，按 method/path/status 分组，
    状态码归类为 2xx/3xx/4xx/5xx。
*/
package metrics
