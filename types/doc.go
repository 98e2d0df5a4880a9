// 版权所有 2024 GuardFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 types 定义 GuardFlow 信任边界管线的核心数据模型。

# 核心模型

  - [Payload]：一次请求提交的不可信输入（文本或代码），每次调用独立持有，
    产出裁决后即丢弃，不做任何持久化。
  - [Finding]：扫描器检出的单个安全/PII 问题，包含类别、严重级别、
    文本区间与脱敏后文本。
  - [Rejection]：静态分析器拒绝结果，指明规则、违规构造与行号。
  - [ExecutionResult]：隔离执行结果，包含状态、输出与耗时。
  - [Verdict]：管线顶层响应，disposition 为唯一权威门禁。

# 不变量

  - disposition 为 executed / executed-with-fault 时 ExecutionResult 非空；
  - disposition 为 blocked 时，至少存在一个 high 级 Finding 或非空 Rejection；
  - 阻断条件存在时绝不发生执行，两者互斥。

# 错误

[Error] 是统一的结构化错误类型，携带错误码、消息与 HTTP 状态。
仅基础设施故障（执行槽耗尽、隔离机制不可用）以 error 形式上抛；
扫描命中、分析拒绝与执行故障都是正常业务结果，折叠进 Verdict。
*/
package types
