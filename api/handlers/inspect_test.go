package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/guardflow/internal/metrics"
	"github.com/BaSui01/guardflow/pipeline"
	"github.com/BaSui01/guardflow/sandbox"
	"github.com/BaSui01/guardflow/types"
)

func newTestHandler(t *testing.T) *InspectHandler {
	t.Helper()
	collector := metrics.NewCollector("guardflow_test", prometheus.NewRegistry(), nil)
	executor := sandbox.New(nil, nil, nil)
	p := pipeline.New(nil, nil, executor, collector, nil)
	return NewInspectHandler(p, 1<<20, nil)
}

func doInspect(t *testing.T, h *InspectHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleInspect(rec, req)
	return rec
}

func TestHandleInspectTextAllowed(t *testing.T) {
	h := newTestHandler(t)

	rec := doInspect(t, h, `{"kind":"text","content":"hello world"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var verdict types.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.Equal(t, types.DispositionAllowed, verdict.Disposition)
	assert.NotEmpty(t, verdict.RequestID)
}

func TestHandleInspectBlocked(t *testing.T) {
	h := newTestHandler(t)

	rec := doInspect(t, h, `{"kind":"text","content":"'; DROP TABLE users; --"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var verdict types.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.Equal(t, types.DispositionBlocked, verdict.Disposition)
	assert.NotEmpty(t, verdict.Findings)
	assert.Nil(t, verdict.ExecutionResult)
}

func TestHandleInspectCodeExecuted(t *testing.T) {
	h := newTestHandler(t)

	rec := doInspect(t, h, `{"kind":"code","content":"print(6*7)"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var verdict types.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.Equal(t, types.DispositionExecuted, verdict.Disposition)
	require.NotNil(t, verdict.ExecutionResult)
	assert.Equal(t, "42", verdict.ExecutionResult.Stdout)
}

func TestHandleInspectCodeRejected(t *testing.T) {
	h := newTestHandler(t)

	rec := doInspect(t, h, `{"kind":"code","content":"load(\"os\", \"path\")"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var verdict types.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.Equal(t, types.DispositionBlocked, verdict.Disposition)
	require.NotNil(t, verdict.Rejection)
	assert.Equal(t, "disallowed-import", verdict.Rejection.RuleID)
}

func TestHandleInspectInvalidPayload(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad kind", `{"kind":"binary","content":"x"}`},
		{"empty content", `{"kind":"text","content":""}`},
		{"unknown field", `{"kind":"text","content":"x","extra":true}`},
		{"malformed json", `{"kind":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doInspect(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(types.ErrInvalidPayload), resp.Error.Code)
		})
	}
}

func TestHandleInspectWrongContentType(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect",
		strings.NewReader(`{"kind":"text","content":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.HandleInspect(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInspectContentTypeVariants(t *testing.T) {
	h := newTestHandler(t)

	// 带参数或大小写差异的合法媒体类型变体均应接受
	variants := []string{
		"application/json",
		"application/json; charset=utf-8",
		"application/json;charset=utf-8",
		"application/json; charset=UTF-8",
		"Application/JSON",
	}

	for _, ct := range variants {
		t.Run(ct, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect",
				strings.NewReader(`{"kind":"text","content":"hello"}`))
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			h.HandleInspect(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, "content type %q should be accepted", ct)
		})
	}
}

func TestHandleInspectMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inspect", nil)
	rec := httptest.NewRecorder()
	h.HandleInspect(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleInspectOversizedBody(t *testing.T) {
	h := NewInspectHandler(nil, 64, nil)

	var buf bytes.Buffer
	buf.WriteString(`{"kind":"text","content":"`)
	buf.WriteString(strings.Repeat("a", 1024))
	buf.WriteString(`"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleInspect(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInspectCustomLimits(t *testing.T) {
	h := newTestHandler(t)

	rec := doInspect(t, h, `{"kind":"code","content":"while True:\n    pass","limits":{"max_duration_ms":100,"max_memory_bytes":1099511627776}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var verdict types.Verdict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verdict))
	assert.Equal(t, types.DispositionExecutedWithFault, verdict.Disposition)
	require.NotNil(t, verdict.ExecutionResult)
	assert.Equal(t, types.StatusTimedOut, verdict.ExecutionResult.Status)
}
