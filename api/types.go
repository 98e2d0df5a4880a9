package api

import "github.com/BaSui01/guardflow/types"

// =============================================================================
// 检查请求/响应类型
// =============================================================================

// InspectRequest 表示一次载荷检查请求。
// @Description 信任边界检查请求结构
type InspectRequest struct {
	// 载荷类型: text 或 code
	Kind string `json:"kind" example:"code"`
	// 载荷内容
	Content string `json:"content" example:"print(6*7)"`
	// 代码语言标识，可选
	Language string `json:"language,omitempty" example:"starlark"`
	// 执行资源上限，可选，缺省使用服务端默认值
	Limits *LimitsSpec `json:"limits,omitempty"`
}

// LimitsSpec 客户端可指定的执行资源上限
type LimitsSpec struct {
	// 最大墙钟时长（毫秒）
	MaxDurationMs int64 `json:"max_duration_ms,omitempty" example:"5000"`
	// 最大内存占用（字节）
	MaxMemoryBytes int64 `json:"max_memory_bytes,omitempty" example:"33554432"`
	// 最大输出字节数
	MaxOutputBytes int `json:"max_output_bytes,omitempty" example:"65536"`
}

// Payload 转换为管线载荷
func (r *InspectRequest) Payload() types.Payload {
	return types.Payload{
		Kind:     types.PayloadKind(r.Kind),
		Content:  r.Content,
		Language: r.Language,
	}
}

// ExecutionLimits 转换为执行资源上限，未指定时返回零值由服务端补默认
func (r *InspectRequest) ExecutionLimits() types.Limits {
	if r.Limits == nil {
		return types.Limits{}
	}
	return types.Limits{
		MaxDurationMs:  r.Limits.MaxDurationMs,
		MaxMemoryBytes: r.Limits.MaxMemoryBytes,
		MaxOutputBytes: r.Limits.MaxOutputBytes,
	}
}

// InspectResponse 表示一次载荷检查响应。
// 响应体即管线装配的 Verdict。
// @Description 信任边界检查响应结构
type InspectResponse = types.Verdict
