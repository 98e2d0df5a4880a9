package pipeline_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/analyzer"
	"github.com/BaSui01/guardflow/pipeline"
	"github.com/BaSui01/guardflow/sandbox"
	"github.com/BaSui01/guardflow/scanner"
	"github.com/BaSui01/guardflow/testutil"
	"github.com/BaSui01/guardflow/types"
)

// 运行方式:
//   go test -bench=. -benchmem ./pipeline/...

func newBenchPipeline(b *testing.B) *pipeline.Pipeline {
	b.Helper()

	an := analyzer.New(nil)
	ex := sandbox.New(nil, an.FileOptions(), zap.NewNop())
	return pipeline.New(scanner.New(nil), an, ex, nil, zap.NewNop())
}

// BenchmarkRun_BenignText 测试纯文本快速路径的吞吐
func BenchmarkRun_BenignText(b *testing.B) {
	p := newBenchPipeline(b)
	payload := testutil.BenignText()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(context.Background(), payload, types.Limits{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRun_BlockedInjection 测试高危发现短路路径
func BenchmarkRun_BlockedInjection(b *testing.B) {
	p := newBenchPipeline(b)
	payload := testutil.SQLInjectionText()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(context.Background(), payload, types.Limits{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRun_RejectedCode 测试静态分析拒绝路径（不进入执行器）
func BenchmarkRun_RejectedCode(b *testing.B) {
	p := newBenchPipeline(b)
	payload := testutil.DisallowedImportCode()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(context.Background(), payload, types.Limits{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRun_ExecutedCode 测试完整四阶段路径（含隔离执行）
func BenchmarkRun_ExecutedCode(b *testing.B) {
	p := newBenchPipeline(b)
	payload := testutil.BenignCode()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(context.Background(), payload, types.Limits{}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkScan_PIIText 测试扫描阶段本身的开销
func BenchmarkScan_PIIText(b *testing.B) {
	sc := scanner.New(nil)
	payload := testutil.PIIText()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sc.Scan(payload)
	}
}
