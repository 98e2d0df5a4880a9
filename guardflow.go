// Package guardflow provides a top-level convenience entry point for creating
// a trust boundary pipeline with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/guardflow"
//
//	p, err := guardflow.New()
//	p, err := guardflow.New(guardflow.WithLogger(logger))
//	p, err := guardflow.New(guardflow.WithoutExecutor())
//
//	verdict, err := p.Run(ctx, types.Payload{Kind: types.KindText, Content: input}, types.Limits{})
//
// The returned pipeline scans payloads for injection and PII signatures,
// statically analyzes code payloads, and executes accepted code in an
// isolated interpreter. Use cmd/guardflow for the full HTTP service.
package guardflow

import (
	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/analyzer"
	"github.com/BaSui01/guardflow/pipeline"
	"github.com/BaSui01/guardflow/sandbox"
	"github.com/BaSui01/guardflow/scanner"
	"github.com/BaSui01/guardflow/types"
)

// options collects facade-level configuration before assembly.
type options struct {
	logger         *zap.Logger
	scannerConfig  *scanner.Config
	analyzerConfig *analyzer.Config
	sandboxConfig  *sandbox.Config
	noExecutor     bool
}

// Option configures the pipeline created by [New].
type Option func(*options)

// WithLogger sets a custom zap logger for all pipeline stages.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithScannerConfig overrides the pattern scanner configuration.
func WithScannerConfig(cfg *scanner.Config) Option {
	return func(o *options) { o.scannerConfig = cfg }
}

// WithAnalyzerConfig overrides the static analyzer configuration.
func WithAnalyzerConfig(cfg *analyzer.Config) Option {
	return func(o *options) { o.analyzerConfig = cfg }
}

// WithSandboxConfig overrides the isolated executor configuration.
func WithSandboxConfig(cfg *sandbox.Config) Option {
	return func(o *options) { o.sandboxConfig = cfg }
}

// WithLimits sets the default execution limits applied when a caller
// does not supply per-request limits.
func WithLimits(limits types.Limits) Option {
	return func(o *options) {
		if o.sandboxConfig == nil {
			o.sandboxConfig = sandbox.DefaultConfig()
		}
		o.sandboxConfig.DefaultLimits = limits
	}
}

// WithoutExecutor builds a scan-and-analyze-only pipeline. Code payloads
// that pass analysis return ErrExecutorUnavailable instead of executing.
func WithoutExecutor() Option {
	return func(o *options) { o.noExecutor = true }
}

// New assembles a ready-to-use trust boundary pipeline with default
// scanner rules, analyzer policy, and an isolated executor.
func New(opts ...Option) (*pipeline.Pipeline, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	sc := scanner.New(o.scannerConfig)
	an := analyzer.New(o.analyzerConfig)

	var ex pipeline.CodeExecutor
	if !o.noExecutor {
		ex = sandbox.New(o.sandboxConfig, an.FileOptions(), o.logger)
	}

	return pipeline.New(sc, an, ex, nil, o.logger), nil
}
