package scanner

import (
	"regexp"

	"github.com/BaSui01/guardflow/types"
)

// CustomPattern 自定义签名规则配置
type CustomPattern struct {
	ID       string         `json:"id" yaml:"id"`
	Category types.Category `json:"category" yaml:"category"`
	Severity types.Severity `json:"severity" yaml:"severity"`
	Pattern  string         `json:"pattern" yaml:"pattern"`
}

// Config 扫描器配置
type Config struct {
	// EnabledCategories 启用的类别，为空则启用所有内置类别
	EnabledCategories []types.Category `json:"enabled_categories" yaml:"enabled_categories"`
	// CustomPatterns 自定义规则，追加在内置规则之后
	CustomPatterns []CustomPattern `json:"custom_patterns" yaml:"custom_patterns"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{}
}

// Scanner 签名扫描器。
// 规则集在构造时固定，此后只读，可被任意多个请求并发使用。
type Scanner struct {
	rules []Rule
}

// New 创建扫描器。
// 内置规则按注册顺序加载，自定义规则追加在末尾；
// 无法编译的自定义模式被跳过。
func New(config *Config) *Scanner {
	if config == nil {
		config = DefaultConfig()
	}

	enabled := make(map[types.Category]bool)
	for _, c := range config.EnabledCategories {
		enabled[c] = true
	}

	rules := make([]Rule, 0)
	for _, r := range defaultRules() {
		if len(enabled) > 0 && !enabled[r.Category] {
			continue
		}
		rules = append(rules, r)
	}

	for _, cp := range config.CustomPatterns {
		re, err := regexp.Compile(cp.Pattern)
		if err != nil {
			continue
		}
		sev := cp.Severity
		if sev == "" {
			sev = types.SeverityHigh
		}
		rules = append(rules, Rule{
			ID:          cp.ID,
			Category:    cp.Category,
			Severity:    sev,
			Description: "Custom pattern",
			Pattern:     re,
		})
	}

	return &Scanner{rules: rules}
}

// Rules 返回规则数量，仅用于诊断
func (s *Scanner) Rules() int {
	return len(s.rules)
}

// Scan 对载荷内容执行全部规则，返回按规则注册顺序排列的 Finding 序列。
// 纯函数：无网络、无外部调用、无副作用；相同规则集与输入产出完全一致。
// 规则允许重叠命中，重叠检出逐条上报，不做去重。
// 每条 Finding 的 RedactedText 是对全部命中区间累积脱敏后的内容副本，
// 任何规则命中的原文都不会残留在任何一条 Finding 中。
func (s *Scanner) Scan(p types.Payload) []types.Finding {
	findings := make([]types.Finding, 0)

	for _, rule := range s.rules {
		locs := rule.Pattern.FindAllStringIndex(p.Content, -1)
		for _, loc := range locs {
			findings = append(findings, types.Finding{
				RuleID:      rule.ID,
				Category:    rule.Category,
				Severity:    rule.Severity,
				Description: rule.Description,
				Span:        types.Span{Start: loc[0], End: loc[1]},
			})
		}
	}

	if len(findings) > 0 {
		redacted := Redact(p.Content, findings)
		for i := range findings {
			findings[i].RedactedText = redacted
		}
	}

	return findings
}
