package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/approval"
	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// ApprovalHandler 审批API处理器
type ApprovalHandler struct {
	engine *engine.Engine
}

// NewApprovalHandler 创建ApprovalHandler
func NewApprovalHandler(eng *engine.Engine) *ApprovalHandler {
	return &ApprovalHandler{engine: eng}
}

// List 列出任务下全部审批记录
// GET /tms/approvals?taskId=
func (h *ApprovalHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	taskID := c.Query("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少taskId查询参数"))
		return
	}

	approvals, err := h.engine.Approvals.ListByTask(ctx, tenantID, taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(approvals)))
}

// Approve 通过审批（只有链头pending记录可响应）
// POST /tms/approvals/:id/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.respond(c, approval.DecisionApprove)
}

// Reject 拒绝审批（链上后续记录级联拒绝，链进入拒绝终态）
// POST /tms/approvals/:id/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.respond(c, approval.DecisionReject)
}

func (h *ApprovalHandler) respond(c *gin.Context, decision approval.Decision) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.RespondApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		bindError(c, err)
		return
	}

	a, err := h.engine.Approvals.Respond(ctx, tenantID, id, decision, req.Comment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(a))
}
