package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/guardflow/api"
	"github.com/BaSui01/guardflow/pipeline"
	"github.com/BaSui01/guardflow/types"
)

// =============================================================================
// 🔍 载荷检查 Handler
// =============================================================================

// InspectHandler 载荷检查处理器
type InspectHandler struct {
	pipeline        *pipeline.Pipeline
	maxPayloadBytes int64
	logger          *zap.Logger
}

// NewInspectHandler 创建载荷检查处理器
func NewInspectHandler(p *pipeline.Pipeline, maxPayloadBytes int64, logger *zap.Logger) *InspectHandler {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 1 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InspectHandler{
		pipeline:        p,
		maxPayloadBytes: maxPayloadBytes,
		logger:          logger,
	}
}

// HandleInspect 处理 POST /api/v1/inspect 请求
// @Summary 载荷检查
// @Description 将不可信载荷提交到信任边界管线并返回裁决
// @Tags 检查
// @Accept json
// @Produce json
// @Success 200 {object} api.InspectResponse "管线裁决"
// @Failure 400 {object} Response "载荷非法"
// @Failure 429 {object} Response "执行槽位耗尽"
// @Router /api/v1/inspect [post]
func (h *InspectHandler) HandleInspect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidPayload,
			"method not allowed", h.logger)
		return
	}

	if !ValidateContentType(w, r, h.logger) {
		return
	}

	// 请求体大小上限先于解码强制执行
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayloadBytes)

	var req api.InspectRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	verdict, err := h.pipeline.Run(r.Context(), req.Payload(), req.ExecutionLimits())
	if err != nil {
		if apiErr, ok := err.(*types.Error); ok {
			WriteError(w, apiErr, h.logger)
			return
		}
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"pipeline failure", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, verdict)
}
