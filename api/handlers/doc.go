// Package handlers 提供 GuardFlow HTTP API 的请求处理器。
//
// 包含载荷检查、健康检查处理器以及统一的响应编码辅助函数。
package handlers
