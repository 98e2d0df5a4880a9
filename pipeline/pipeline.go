// 版权所有 2024 GuardFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package pipeline 将扫描、静态分析、隔离执行与裁决装配
// 串联为单次同步调用的信任边界管线。
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/analyzer"
	"github.com/BaSui01/guardflow/internal/metrics"
	"github.com/BaSui01/guardflow/scanner"
	"github.com/BaSui01/guardflow/types"
)

// CodeExecutor 隔离执行器接口。
// 生产实现为 sandbox.Executor；测试可注入记录型假实现。
type CodeExecutor interface {
	Execute(ctx context.Context, p types.Payload, limits types.Limits) (*types.ExecutionResult, error)
}

// Pipeline 信任边界管线。
// 各阶段组件在构造时固定，此后只读，可被任意多个请求并发调用。
type Pipeline struct {
	scanner  *scanner.Scanner
	analyzer *analyzer.Analyzer
	executor CodeExecutor
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// New 创建管线。executor 为 nil 时代码载荷在分析通过后直接
// 报告为基础设施错误，因此生产构造必须提供执行器。
func New(sc *scanner.Scanner, an *analyzer.Analyzer, ex CodeExecutor, collector *metrics.Collector, logger *zap.Logger) *Pipeline {
	if sc == nil {
		sc = scanner.New(nil)
	}
	if an == nil {
		an = analyzer.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		scanner:  sc,
		analyzer: an,
		executor: ex,
		metrics:  collector,
		logger:   logger,
	}
}

// Run 对单个载荷执行完整管线并装配 Verdict。
// 阶段顺序固定：扫描 → (代码载荷) 静态分析 → 隔离执行 → 装配。
// 高级检出或分析拒绝立即短路为 blocked，绝不触达执行器。
// 仅基础设施故障（限流、执行器不可用）以 error 返回；载荷自身的
// 故障与超时遏制在 ExecutionResult 内，不构成调用错误。
func (p *Pipeline) Run(ctx context.Context, payload types.Payload, limits types.Limits) (*types.Verdict, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := p.logger.With(zap.String("request_id", requestID))

	scanStart := time.Now()
	findings := p.scanner.Scan(payload)
	p.recordScan(findings, time.Since(scanStart))

	if types.HasHighSeverity(findings) {
		log.Info("payload blocked by scanner",
			zap.Int("findings", len(findings)))
		return p.assemble(requestID, types.DispositionBlocked, findings, nil, nil), nil
	}

	if payload.Kind == types.KindText {
		return p.assemble(requestID, types.DispositionAllowed, findings, nil, nil), nil
	}

	if rejection := p.analyzer.Analyze(payload); rejection != nil {
		if p.metrics != nil {
			p.metrics.RecordRejection(rejection.RuleID)
		}
		log.Info("payload blocked by analyzer",
			zap.String("rule_id", rejection.RuleID),
			zap.Int("line", rejection.Line))
		return p.assemble(requestID, types.DispositionBlocked, findings, rejection, nil), nil
	}

	if p.executor == nil {
		return nil, types.NewError(types.ErrExecutorUnavailable, "no executor configured")
	}

	result, err := p.executor.Execute(ctx, payload, limits)
	if err != nil {
		if types.GetErrorCode(err) == types.ErrThrottled && p.metrics != nil {
			p.metrics.RecordThrottled()
		}
		log.Warn("execution failed before start", zap.Error(err))
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.RecordExecution(string(result.Status),
			time.Duration(result.DurationMs)*time.Millisecond, result.Truncated)
	}

	disposition := types.DispositionExecuted
	if result.Status != types.StatusCompleted {
		disposition = types.DispositionExecutedWithFault
	}

	log.Info("execution contained",
		zap.String("status", string(result.Status)),
		zap.String("disposition", string(disposition)))

	return p.assemble(requestID, disposition, findings, nil, result), nil
}

// assemble 构建最终 Verdict 并记录裁决指标。
// Findings 保持扫描阶段的注册顺序；blocked 裁决绝不携带执行结果。
func (p *Pipeline) assemble(requestID string, d types.Disposition, findings []types.Finding, rejection *types.Rejection, result *types.ExecutionResult) *types.Verdict {
	if p.metrics != nil {
		p.metrics.RecordVerdict(string(d))
	}
	return &types.Verdict{
		RequestID:       requestID,
		Disposition:     d,
		Findings:        findings,
		Rejection:       rejection,
		ExecutionResult: result,
	}
}

func (p *Pipeline) recordScan(findings []types.Finding, elapsed time.Duration) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordScan(elapsed)
	for _, f := range findings {
		p.metrics.RecordFinding(string(f.Category), string(f.Severity))
	}
}
