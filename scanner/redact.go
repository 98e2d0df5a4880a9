package scanner

import (
	"sort"
	"strings"

	"github.com/BaSui01/guardflow/types"
)

// maskedRun 合并后的连续掩码段
type maskedRun struct {
	start int
	end   int
	mask  string
	multi bool
}

// Redact 在内容副本上按全部检出区间脱敏。
// 区间按起点排序后自外向内应用；重叠区间合并为单个掩码段而非双重掩码。
// 合并段内只涉及一个类别时使用该类别的固定记号，跨类别时使用通用记号。
func Redact(content string, findings []types.Finding) string {
	if len(findings) == 0 {
		return content
	}

	spans := make([]maskedRun, 0, len(findings))
	for _, f := range findings {
		if f.Span.Start < 0 || f.Span.End > len(content) || f.Span.Start >= f.Span.End {
			continue
		}
		spans = append(spans, maskedRun{
			start: f.Span.Start,
			end:   f.Span.End,
			mask:  MaskToken(f.Category),
		})
	}
	if len(spans) == 0 {
		return content
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	// 合并重叠区间
	merged := []maskedRun{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start < last.end {
			if s.end > last.end {
				last.end = s.end
			}
			if s.mask != last.mask {
				last.multi = true
			}
			continue
		}
		merged = append(merged, s)
	}

	var b strings.Builder
	prev := 0
	for _, run := range merged {
		b.WriteString(content[prev:run.start])
		if run.multi {
			b.WriteString(genericMask)
		} else {
			b.WriteString(run.mask)
		}
		prev = run.end
	}
	b.WriteString(content[prev:])

	return b.String()
}
