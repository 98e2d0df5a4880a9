package types

// ExecutionStatus 隔离执行的终止状态
type ExecutionStatus string

const (
	// StatusCompleted 正常完成
	StatusCompleted ExecutionStatus = "completed"
	// StatusTimedOut 超出墙钟或步数上限被强制终止
	StatusTimedOut ExecutionStatus = "timed_out"
	// StatusFaulted 载荷自身抛出未捕获故障，已在执行器内回收
	StatusFaulted ExecutionStatus = "faulted"
	// StatusKilled 调用方取消请求导致的立即终止
	StatusKilled ExecutionStatus = "killed"
)

// ExecutionResult 单次隔离执行的结果。
// 由执行器在一次执行生命周期内独占，跨调用绝不共享。
type ExecutionResult struct {
	Status     ExecutionStatus `json:"status"`
	Stdout     string          `json:"stdout"`
	Stderr     string          `json:"stderr"`
	DurationMs int64           `json:"duration_ms"`
	ExitReason string          `json:"exit_reason,omitempty"`
	Truncated  bool            `json:"truncated,omitempty"`
}

// Disposition 管线最终处置
type Disposition string

const (
	// DispositionAllowed 纯文本载荷通过，可能携带已脱敏的低/中级检出
	DispositionAllowed Disposition = "allowed"
	// DispositionBlocked 高级检出或分析拒绝，未发生任何执行
	DispositionBlocked Disposition = "blocked"
	// DispositionExecuted 执行正常完成
	DispositionExecuted Disposition = "executed"
	// DispositionExecutedWithFault 执行发生故障/超时/被杀，已在执行器内遏制
	DispositionExecutedWithFault Disposition = "executed-with-fault"
)

// Verdict 管线顶层响应。
// 每次请求由装配器构建一次，返回后不可变。
// 消费方必须以 Disposition 作为权威门禁；存在 high 级 Finding 时
// 不得展示或执行未脱敏的原始内容。
type Verdict struct {
	RequestID       string           `json:"request_id"`
	Disposition     Disposition      `json:"disposition"`
	Findings        []Finding        `json:"findings"`
	Rejection       *Rejection       `json:"rejection,omitempty"`
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty"`
}
