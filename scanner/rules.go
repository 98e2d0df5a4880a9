package scanner

import (
	"regexp"

	"github.com/BaSui01/guardflow/types"
)

// Rule 单条签名规则。
// Severity 是规则的静态属性，不由上下文计算。
type Rule struct {
	ID          string
	Category    types.Category
	Severity    types.Severity
	Description string
	Pattern     *regexp.Regexp
}

// defaultRules 返回内置规则集。
// 切片顺序即注册顺序，决定 Finding 的上报顺序。
func defaultRules() []Rule {
	return []Rule{
		// SQL 注入
		{
			ID:          "sql-union-select",
			Category:    types.CategorySQLInjection,
			Severity:    types.SeverityHigh,
			Description: "UNION-based SQL injection",
			Pattern:     regexp.MustCompile(`(?i)\bunion\b.+\bselect\b`),
		},
		{
			ID:          "sql-tautology",
			Category:    types.CategorySQLInjection,
			Severity:    types.SeverityHigh,
			Description: "Tautology-based SQL injection",
			Pattern:     regexp.MustCompile(`(?i)\bor\b\s+1\s*=\s*1\b`),
		},
		{
			ID:          "sql-drop-table",
			Category:    types.CategorySQLInjection,
			Severity:    types.SeverityHigh,
			Description: "Destructive SQL statement",
			Pattern:     regexp.MustCompile(`(?i)\bdrop\s+table\b`),
		},
		{
			ID:          "sql-stacked-comment",
			Category:    types.CategorySQLInjection,
			Severity:    types.SeverityHigh,
			Description: "Stacked query with trailing comment",
			Pattern:     regexp.MustCompile(`;\s*(--|#)`),
		},
		{
			ID:          "sql-shutdown",
			Category:    types.CategorySQLInjection,
			Severity:    types.SeverityHigh,
			Description: "Stacked SHUTDOWN statement",
			Pattern:     regexp.MustCompile(`(?i);\s*shutdown\b`),
		},
		// 脚本注入
		{
			ID:          "script-tag",
			Category:    types.CategoryScriptInjection,
			Severity:    types.SeverityHigh,
			Description: "Inline script tag",
			Pattern:     regexp.MustCompile(`(?i)<\s*script\b`),
		},
		{
			ID:          "script-event-handler",
			Category:    types.CategoryScriptInjection,
			Severity:    types.SeverityHigh,
			Description: "Inline event handler attribute",
			Pattern:     regexp.MustCompile(`(?i)\bon\w+\s*=`),
		},
		{
			ID:          "script-javascript-uri",
			Category:    types.CategoryScriptInjection,
			Severity:    types.SeverityHigh,
			Description: "javascript: URI scheme",
			Pattern:     regexp.MustCompile(`(?i)javascript:`),
		},
		// 提示词注入
		{
			ID:          "prompt-instruction-override",
			Category:    types.CategoryPromptInjection,
			Severity:    types.SeverityHigh,
			Description: "Attempt to override prior instructions",
			Pattern:     regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?|guidelines?)`),
		},
		{
			ID:          "prompt-role-marker",
			Category:    types.CategoryPromptInjection,
			Severity:    types.SeverityMedium,
			Description: "System/assistant role marker injection",
			Pattern:     regexp.MustCompile(`(?im)^\s*(system|assistant)\s*:\s*`),
		},
		{
			ID:          "prompt-dan",
			Category:    types.CategoryPromptInjection,
			Severity:    types.SeverityMedium,
			Description: "DAN jailbreak phrase",
			Pattern:     regexp.MustCompile(`(?i)\bdo\s+anything\s+now\b`),
		},
		// PII 形态
		{
			ID:          "pii-email",
			Category:    types.CategoryPIIEmail,
			Severity:    types.SeverityLow,
			Description: "Email address",
			Pattern:     regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`),
		},
		{
			ID:          "pii-phone",
			Category:    types.CategoryPIIPhone,
			Severity:    types.SeverityLow,
			Description: "Phone number",
			Pattern:     regexp.MustCompile(`\b(?:\+\d{1,3}[\s-]?)?(?:\(\d{2,3}\)[\s-]?)?\d{3}[\s-]\d{4}\b`),
		},
		{
			ID:          "pii-id-number",
			Category:    types.CategoryPIIID,
			Severity:    types.SeverityMedium,
			Description: "Card or identity number shape",
			Pattern:     regexp.MustCompile(`\b\d(?:[ -]?\d){12,15}\b`),
		},
	}
}

// maskTokens 每个类别的固定掩码记号。
// 掩码绝不回显原始命中子串。
var maskTokens = map[types.Category]string{
	types.CategorySQLInjection:    "[REDACTED-SQL-INJECTION]",
	types.CategoryScriptInjection: "[REDACTED-SCRIPT-INJECTION]",
	types.CategoryPromptInjection: "[REDACTED-PROMPT-INJECTION]",
	types.CategoryPIIEmail:        "[REDACTED-PII-EMAIL]",
	types.CategoryPIIPhone:        "[REDACTED-PII-PHONE]",
	types.CategoryPIIID:           "[REDACTED-PII-ID]",
}

// genericMask 合并区间跨越多个类别时使用的记号
const genericMask = "[REDACTED]"

// MaskToken 返回指定类别的掩码记号
func MaskToken(cat types.Category) string {
	if tok, ok := maskTokens[cat]; ok {
		return tok
	}
	return genericMask
}
