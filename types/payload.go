package types

// PayloadKind 载荷类型
type PayloadKind string

const (
	// KindText 纯文本载荷，仅扫描不执行
	KindText PayloadKind = "text"
	// KindCode 代码载荷，通过静态分析后进入隔离执行
	KindCode PayloadKind = "code"
)

// Payload 一次请求提交的不可信输入单元。
// 创建后不可变，由单次管线调用独占，产出 Verdict 后丢弃。
type Payload struct {
	Kind     PayloadKind `json:"kind"`
	Content  string      `json:"content"`
	Language string      `json:"language,omitempty"`
}

// Limits 单次执行的资源上限
type Limits struct {
	// 最大墙钟时长（毫秒）
	MaxDurationMs int64 `json:"max_duration_ms"`
	// 最大内存占用（字节）
	MaxMemoryBytes int64 `json:"max_memory_bytes"`
	// 最大输出字节数，超出部分截断而非报错
	MaxOutputBytes int `json:"max_output_bytes"`
}

// Validate 校验载荷基本合法性
func (p Payload) Validate() error {
	if p.Kind != KindText && p.Kind != KindCode {
		return NewError(ErrInvalidPayload, "kind must be \"text\" or \"code\"")
	}
	if p.Content == "" {
		return NewError(ErrInvalidPayload, "content is required")
	}
	return nil
}
