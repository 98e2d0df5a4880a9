package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/guardflow/types"
)

func newTestExecutor(t *testing.T, config *Config) *Executor {
	t.Helper()
	return New(config, nil, nil)
}

func codePayload(content string) types.Payload {
	return types.Payload{Kind: types.KindCode, Content: content, Language: "starlark"}
}

func TestExecuteCompleted(t *testing.T) {
	e := newTestExecutor(t, nil)

	result, err := e.Execute(context.Background(), codePayload("print(6*7)"), types.Limits{})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "42", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.False(t, result.Truncated)
}

func TestExecuteMultilineOutput(t *testing.T) {
	e := newTestExecutor(t, nil)

	code := "for i in range(3):\n    print(i)"
	result, err := e.Execute(context.Background(), codePayload(code), types.Limits{})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "0\n1\n2", result.Stdout)
}

func TestExecuteFaulted(t *testing.T) {
	e := newTestExecutor(t, nil)

	result, err := e.Execute(context.Background(), codePayload(`fail("boom")`), types.Limits{})
	require.NoError(t, err)

	assert.Equal(t, types.StatusFaulted, result.Status)
	assert.Contains(t, result.Stderr, "boom")
	assert.Equal(t, "uncaught error", result.ExitReason)
}

func TestExecuteTimedOutWallClock(t *testing.T) {
	e := newTestExecutor(t, nil)

	result, err := e.Execute(context.Background(), codePayload("while True:\n    pass"), types.Limits{
		MaxDurationMs:  100,
		MaxMemoryBytes: 1 << 40,
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusTimedOut, result.Status)
	assert.Equal(t, reasonTimeLimit, result.ExitReason)
	assert.GreaterOrEqual(t, result.DurationMs, int64(100))
}

func TestExecuteTimedOutStepBudget(t *testing.T) {
	e := newTestExecutor(t, nil)

	// A tiny memory limit yields a tiny step budget, so the loop hits the
	// interpreter's step cap long before the wall clock.
	result, err := e.Execute(context.Background(), codePayload("x = 0\nwhile True:\n    x += 1"), types.Limits{
		MaxDurationMs:  10_000,
		MaxMemoryBytes: 2048,
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusTimedOut, result.Status)
	assert.Equal(t, stepsExhausted, result.ExitReason)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		timedOut bool
		killed   bool
		status   types.ExecutionStatus
		reason   string
	}{
		{"clean run", nil, false, false, types.StatusCompleted, ""},
		// 定时器在解释器正常返回后才触发：完成优先于迟到的取消
		{"late timer after completion", nil, true, false, types.StatusCompleted, ""},
		{"late cancel after completion", nil, false, true, types.StatusCompleted, ""},
		{"timed out mid run", errors.New("Starlark computation cancelled: time limit exceeded"), true, false, types.StatusTimedOut, reasonTimeLimit},
		{"killed mid run", errors.New("Starlark computation cancelled: cancelled by caller"), false, true, types.StatusKilled, reasonCancelled},
		{"step budget exhausted", errors.New("Starlark computation cancelled: too many steps"), false, false, types.StatusTimedOut, stepsExhausted},
		{"payload fault", errors.New("fail: boom"), false, false, types.StatusFaulted, "uncaught error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, reason := classify(tt.err, tt.timedOut, tt.killed)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestExecuteKilledByCaller(t *testing.T) {
	e := newTestExecutor(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result, err := e.Execute(ctx, codePayload("while True:\n    pass"), types.Limits{
		MaxDurationMs:  10_000,
		MaxMemoryBytes: 1 << 40,
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusKilled, result.Status)
	assert.Equal(t, reasonCancelled, result.ExitReason)
}

func TestExecuteOutputTruncated(t *testing.T) {
	e := newTestExecutor(t, nil)

	code := "for i in range(100):\n    print(\"xxxxxxxxxx\")"
	result, err := e.Execute(context.Background(), codePayload(code), types.Limits{
		MaxOutputBytes: 64,
	})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.True(t, result.Truncated)
	assert.True(t, strings.HasSuffix(result.Stdout, truncationMarker))
	assert.LessOrEqual(t, len(result.Stdout), 64+len(truncationMarker))
}

func TestExecuteAllowedModuleLoad(t *testing.T) {
	e := newTestExecutor(t, nil)

	code := "load(\"math\", \"sqrt\")\nprint(int(sqrt(16.0)))"
	result, err := e.Execute(context.Background(), codePayload(code), types.Limits{})
	require.NoError(t, err)

	assert.Equal(t, types.StatusCompleted, result.Status)
	assert.Equal(t, "4", result.Stdout)
}

func TestExecuteDisallowedModuleLoad(t *testing.T) {
	e := newTestExecutor(t, nil)

	result, err := e.Execute(context.Background(), codePayload("load(\"os\", \"path\")"), types.Limits{})
	require.NoError(t, err)

	assert.Equal(t, types.StatusFaulted, result.Status)
	assert.Contains(t, result.Stderr, "not available")
}

func TestExecuteThrottled(t *testing.T) {
	e := newTestExecutor(t, &Config{
		PoolSize:       1,
		AcquireTimeout: 50 * time.Millisecond,
	})

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		_, err := e.Execute(context.Background(), codePayload("while True:\n    pass"), types.Limits{
			MaxDurationMs:  1000,
			MaxMemoryBytes: 1 << 40,
		})
		assert.NoError(t, err)
	}()

	<-started
	time.Sleep(100 * time.Millisecond)

	_, err := e.Execute(context.Background(), codePayload("print(1)"), types.Limits{})
	require.Error(t, err)
	assert.Equal(t, types.ErrThrottled, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))

	<-done
}

func TestExecuteIsolationAcrossRuns(t *testing.T) {
	e := newTestExecutor(t, nil)

	_, err := e.Execute(context.Background(), codePayload("x = 41"), types.Limits{})
	require.NoError(t, err)

	// A later execution must not observe state from an earlier one.
	result, err := e.Execute(context.Background(), codePayload("print(x)"), types.Limits{})
	require.NoError(t, err)
	assert.Equal(t, types.StatusFaulted, result.Status)
	assert.Contains(t, result.Stderr, "undefined")
}

func TestExecutorStats(t *testing.T) {
	e := newTestExecutor(t, nil)

	_, err := e.Execute(context.Background(), codePayload("print(1)"), types.Limits{})
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), codePayload(`fail("x")`), types.Limits{})
	require.NoError(t, err)

	stats := e.Stats()
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(1), stats.Faulted)
}
