// Package config 提供 GuardFlow 的配置管理功能。
//
// 包含配置加载与校验。支持从 YAML 文件和环境变量加载配置，
// 优先级为 默认值 → YAML 文件 → 环境变量。
// 配置在进程启动时一次性加载，运行期间不热重载。
package config
