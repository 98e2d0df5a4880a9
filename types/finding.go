package types

// Category 检出问题的封闭类别枚举
type Category string

const (
	CategorySQLInjection    Category = "sql-injection"
	CategoryScriptInjection Category = "script-injection"
	CategoryPromptInjection Category = "prompt-injection"
	CategoryPIIEmail        Category = "pii-email"
	CategoryPIIPhone        Category = "pii-phone"
	CategoryPIIID           Category = "pii-id"
)

// Severity 严重级别
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// severityRank 级别排序，仅用于比较
var severityRank = map[Severity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// CompareSeverity 比较两个严重级别。
// 返回: >0 如果 a > b, <0 如果 a < b, 0 如果相等
func CompareSeverity(a, b Severity) int {
	return severityRank[a] - severityRank[b]
}

// Span 内容中的半开区间 [Start, End)
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Finding 扫描器检出的单个问题。
// 不可变值对象，按规则注册顺序收集，不按严重级别重排。
// RedactedText 是以掩码替换全部命中区间后的内容副本，
// 绝不包含任何规则的原始命中子串。
type Finding struct {
	RuleID       string   `json:"rule_id"`
	Category     Category `json:"category"`
	Severity     Severity `json:"severity"`
	Description  string   `json:"description,omitempty"`
	Span         Span     `json:"span"`
	RedactedText string   `json:"redacted_text,omitempty"`
}

// HasHighSeverity 判断 Finding 序列中是否存在 high 级检出
func HasHighSeverity(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// Rejection 静态分析拒绝结果。
// 分析器快速失败：首个违规构造即中止，因此每次分析至多产生一个 Rejection。
type Rejection struct {
	RuleID          string `json:"rule_id"`
	NodeDescription string `json:"node_description"`
	Line            int    `json:"line"`
}
