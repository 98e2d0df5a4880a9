// 版权所有 2024 GuardFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 scanner 提供对不可信载荷的签名扫描与脱敏能力。

# 概述

scanner 将输入文本与分类签名集（注入类、PII 形态）逐条匹配，
产出结构化的 Finding 序列。扫描是纯函数：给定相同规则集与输入，
输出完全一致，因为它在每个请求（包括被拒绝的请求）上都会运行。

# 核心模型

  - [Rule]：单条签名规则，类别与严重级别是规则的静态属性，不依赖上下文。
  - [Scanner]：不可变规则集的持有者，进程级初始化一次，并发读安全。

# 规则执行

所有注册规则独立执行，允许多条规则命中重叠区间；重叠检出逐条上报，
不做去重。脱敏在文本副本上按区间进行，重叠区间合并为单个掩码段，
绝不双重掩码。每个类别使用固定掩码记号，原始命中子串绝不出现在
任何 Finding 的 RedactedText 中。

# 扩展方式

通过 [Config.CustomPatterns] 注入自定义正则规则；非法模式在加载时
跳过，不影响内置规则集。
*/
package scanner
