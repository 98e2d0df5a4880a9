// =============================================================================
// 📦 测试载荷夹具
// =============================================================================
// 管线各阶段共用的典型载荷样本：良性文本、注入样本、代码样本
// =============================================================================
package testutil

import "github.com/BaSui01/guardflow/types"

// BenignText 不会触发任何扫描规则的纯文本载荷
func BenignText() types.Payload {
	return types.Payload{
		Kind:    types.KindText,
		Content: "the quarterly report is due on friday",
	}
}

// SQLInjectionText 触发高危 SQL 注入规则的文本载荷
func SQLInjectionText() types.Payload {
	return types.Payload{
		Kind:    types.KindText,
		Content: "id=1 UNION SELECT username, password FROM users",
	}
}

// PIIText 仅包含低危 PII（邮箱）的文本载荷
func PIIText() types.Payload {
	return types.Payload{
		Kind:    types.KindText,
		Content: "please contact alice@example.com for details",
	}
}

// BenignCode 可通过静态分析并正常执行的代码载荷
func BenignCode() types.Payload {
	return types.Payload{
		Kind:    types.KindCode,
		Content: "print(6 * 7)",
	}
}

// InfiniteLoopCode 永不自行终止的代码载荷，用于超时与取消路径
func InfiniteLoopCode() types.Payload {
	return types.Payload{
		Kind:    types.KindCode,
		Content: "while True:\n    pass",
	}
}

// DisallowedImportCode 会被静态分析拒绝的代码载荷
func DisallowedImportCode() types.Payload {
	return types.Payload{
		Kind:    types.KindCode,
		Content: "load(\"os\", \"system\")",
	}
}

// FaultingCode 执行期抛出未捕获错误的代码载荷
func FaultingCode() types.Payload {
	return types.Payload{
		Kind:    types.KindCode,
		Content: "fail(\"boom\")",
	}
}

// GenerousLimits 宽松到不会干扰断言路径的执行限制
func GenerousLimits() types.Limits {
	return types.Limits{
		MaxDurationMs:  5000,
		MaxMemoryBytes: 1 << 40,
		MaxOutputBytes: 64 << 10,
	}
}
