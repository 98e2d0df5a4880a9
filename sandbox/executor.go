// Package sandbox provides isolated execution of untrusted code payloads.
//
// Payloads run as Starlark programs on a fresh interpreter thread per
// execution: no shared globals, no filesystem, no network, and no process
// state beyond the interpreter itself. Termination is non-cooperative -
// the supervisor cancels the thread from outside, so a payload spinning in
// a tight loop cannot outlive its limits.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/internal/pool"
	"github.com/BaSui01/guardflow/types"
)

// Cancellation reasons passed to the interpreter thread. starlark-go folds
// the reason into the resulting error string, which classification relies on.
const (
	reasonTimeLimit = "time limit exceeded"
	reasonCancelled = "cancelled by caller"

	// stepsExhausted is the reason starlark-go itself reports when the
	// per-thread step budget runs out.
	stepsExhausted = "too many steps"
)

// Config configures the executor.
type Config struct {
	// PoolSize caps concurrent executions.
	PoolSize int `json:"pool_size" yaml:"pool_size"`
	// AcquireTimeout bounds the wait for a free execution slot.
	AcquireTimeout time.Duration `json:"acquire_timeout" yaml:"acquire_timeout"`
	// StepsPerMemoryByte converts the memory limit into an interpreter
	// step budget. The interpreter meters computation in steps, not
	// bytes; steps bound allocation transitively.
	StepsPerMemoryByte float64 `json:"steps_per_memory_byte" yaml:"steps_per_memory_byte"`
	// AllowedModules is the closed set of loadable modules.
	AllowedModules []string `json:"allowed_modules" yaml:"allowed_modules"`
	// DefaultLimits applies when the caller provides none.
	DefaultLimits types.Limits `json:"default_limits" yaml:"default_limits"`
}

// DefaultConfig returns secure defaults.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:           8,
		AcquireTimeout:     2 * time.Second,
		StepsPerMemoryByte: 0.5,
		AllowedModules:     []string{"math", "json"},
		DefaultLimits: types.Limits{
			MaxDurationMs:  5000,
			MaxMemoryBytes: 32 * 1024 * 1024,
			MaxOutputBytes: 64 * 1024,
		},
	}
}

// Executor runs code payloads in isolation. It owns a bounded admission
// pool; a payload that cannot get a slot within the acquire timeout fails
// with a throttling error instead of queueing unboundedly.
type Executor struct {
	config  *Config
	pool    *pool.ExecPool
	opts    *syntax.FileOptions
	modules map[string]starlark.StringDict
	logger  *zap.Logger

	mu    sync.Mutex
	stats ExecutorStats
}

// ExecutorStats tracks terminal statuses across executions.
type ExecutorStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	TimedOut  int64 `json:"timed_out"`
	Faulted   int64 `json:"faulted"`
	Killed    int64 `json:"killed"`
}

// New creates an Executor. The syntax options must match the ones the
// static analyzer parsed with, so both stages agree on the dialect.
func New(config *Config, opts *syntax.FileOptions, logger *zap.Logger) *Executor {
	if config == nil {
		config = DefaultConfig()
	}
	def := DefaultConfig()
	if config.PoolSize <= 0 {
		config.PoolSize = def.PoolSize
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = def.AcquireTimeout
	}
	if config.StepsPerMemoryByte <= 0 {
		config.StepsPerMemoryByte = def.StepsPerMemoryByte
	}
	if len(config.AllowedModules) == 0 {
		config.AllowedModules = def.AllowedModules
	}
	if config.DefaultLimits.MaxDurationMs <= 0 {
		config.DefaultLimits.MaxDurationMs = def.DefaultLimits.MaxDurationMs
	}
	if config.DefaultLimits.MaxMemoryBytes <= 0 {
		config.DefaultLimits.MaxMemoryBytes = def.DefaultLimits.MaxMemoryBytes
	}
	if config.DefaultLimits.MaxOutputBytes <= 0 {
		config.DefaultLimits.MaxOutputBytes = def.DefaultLimits.MaxOutputBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts == nil {
		opts = &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		}
	}

	builtins := map[string]*starlarkstruct.Module{
		"math": math.Module,
		"json": json.Module,
	}
	modules := make(map[string]starlark.StringDict)
	for _, name := range config.AllowedModules {
		name = strings.TrimSuffix(name, ".star")
		mod, ok := builtins[name]
		if !ok {
			continue
		}
		dict := make(starlark.StringDict, len(mod.Members)+1)
		for k, v := range mod.Members {
			dict[k] = v
		}
		dict[name] = mod
		modules[name] = dict
	}

	return &Executor{
		config:  config,
		pool:    pool.NewExecPool(config.PoolSize, config.AcquireTimeout),
		opts:    opts,
		modules: modules,
		logger:  logger,
	}
}

// Execute runs the payload under the given limits and returns its terminal
// result. Only infrastructure failures (throttling, caller cancellation
// before admission) return an error; payload faults and limit kills are
// reported inside the result, never as an error.
func (e *Executor) Execute(ctx context.Context, p types.Payload, limits types.Limits) (*types.ExecutionResult, error) {
	limits = e.applyDefaults(limits)

	if err := e.pool.Acquire(ctx); err != nil {
		if err == pool.ErrThrottled {
			return nil, types.NewError(types.ErrThrottled, "no execution slot available").
				WithRetryable(true)
		}
		return nil, types.NewError(types.ErrExecutorUnavailable, "execution aborted before admission").
			WithCause(err)
	}
	defer e.pool.Release()

	result := e.run(ctx, p, limits)
	e.record(result.Status)

	e.logger.Debug("execution finished",
		zap.String("status", string(result.Status)),
		zap.Int64("duration_ms", result.DurationMs),
		zap.Bool("truncated", result.Truncated))

	return result, nil
}

// run performs a single interpreter execution on a fresh thread.
func (e *Executor) run(ctx context.Context, p types.Payload, limits types.Limits) (result *types.ExecutionResult) {
	stdout := newBoundedBuffer(limits.MaxOutputBytes)
	start := time.Now()

	var timedOut, killed bool
	var flagMu sync.Mutex

	thread := &starlark.Thread{
		Name: "payload",
		Print: func(_ *starlark.Thread, msg string) {
			stdout.WriteLine(msg)
		},
		Load: e.load,
	}
	if steps := e.stepBudget(limits.MaxMemoryBytes); steps > 0 {
		thread.SetMaxExecutionSteps(steps)
	}

	timeout := time.Duration(limits.MaxDurationMs) * time.Millisecond
	timer := time.AfterFunc(timeout, func() {
		flagMu.Lock()
		timedOut = true
		flagMu.Unlock()
		thread.Cancel(reasonTimeLimit)
	})
	defer timer.Stop()

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			flagMu.Lock()
			killed = true
			flagMu.Unlock()
			thread.Cancel(reasonCancelled)
		case <-watchDone:
		}
	}()

	finish := func(status types.ExecutionStatus, stderr, reason string) *types.ExecutionResult {
		return &types.ExecutionResult{
			Status:     status,
			Stdout:     stdout.String(),
			Stderr:     stderr,
			DurationMs: time.Since(start).Milliseconds(),
			ExitReason: reason,
			Truncated:  stdout.Truncated(),
		}
	}

	// The interpreter may panic on pathological input; a panic terminates
	// only this execution, never the process.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("interpreter panic recovered", zap.Any("panic", r))
			result = finish(types.StatusFaulted, fmt.Sprintf("interpreter panic: %v", r), "panic")
		}
	}()

	_, err := starlark.ExecFileOptions(e.opts, thread, "payload.star", p.Content, starlark.StringDict{})

	flagMu.Lock()
	wasTimedOut, wasKilled := timedOut, killed
	flagMu.Unlock()

	status, stderr, reason := classify(err, wasTimedOut, wasKilled)
	return finish(status, stderr, reason)
}

// classify maps an interpreter outcome to a terminal status. The flags may
// fire after a successful return (the timer races the final instruction), so
// an error-free run is completed regardless of them: a cancel that landed too
// late never interrupted anything.
func classify(err error, timedOut, killed bool) (types.ExecutionStatus, string, string) {
	switch {
	case err == nil:
		return types.StatusCompleted, "", ""
	case timedOut:
		return types.StatusTimedOut, "", reasonTimeLimit
	case killed:
		return types.StatusKilled, "", reasonCancelled
	case strings.Contains(err.Error(), stepsExhausted):
		return types.StatusTimedOut, "", stepsExhausted
	default:
		stderr := err.Error()
		if evalErr, ok := err.(*starlark.EvalError); ok {
			stderr = evalErr.Backtrace()
		}
		return types.StatusFaulted, stderr, "uncaught error"
	}
}

// load resolves a load() statement against the module allowlist. The static
// analyzer rejects disallowed loads before execution; this is the runtime
// backstop for the same policy.
func (e *Executor) load(_ *starlark.Thread, module string) (starlark.StringDict, error) {
	dict, ok := e.modules[strings.TrimSuffix(module, ".star")]
	if !ok {
		return nil, fmt.Errorf("module %q is not available", module)
	}
	return dict, nil
}

func (e *Executor) applyDefaults(limits types.Limits) types.Limits {
	def := e.config.DefaultLimits
	if limits.MaxDurationMs <= 0 {
		limits.MaxDurationMs = def.MaxDurationMs
	}
	if limits.MaxMemoryBytes <= 0 {
		limits.MaxMemoryBytes = def.MaxMemoryBytes
	}
	if limits.MaxOutputBytes <= 0 {
		limits.MaxOutputBytes = def.MaxOutputBytes
	}
	return limits
}

func (e *Executor) stepBudget(memoryBytes int64) uint64 {
	ratio := e.config.StepsPerMemoryByte
	if ratio <= 0 {
		ratio = 0.5
	}
	budget := float64(memoryBytes) * ratio
	if budget <= 0 {
		return 0
	}
	return uint64(budget)
}

func (e *Executor) record(status types.ExecutionStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Total++
	switch status {
	case types.StatusCompleted:
		e.stats.Completed++
	case types.StatusTimedOut:
		e.stats.TimedOut++
	case types.StatusFaulted:
		e.stats.Faulted++
	case types.StatusKilled:
		e.stats.Killed++
	}
}

// Stats returns execution statistics.
func (e *Executor) Stats() ExecutorStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// PoolStats returns admission pool counters.
func (e *Executor) PoolStats() pool.Stats {
	return e.pool.Stats()
}
