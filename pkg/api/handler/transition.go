package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// TransitionHandler 流转边API处理器
type TransitionHandler struct {
	engine *engine.Engine
}

// NewTransitionHandler 创建TransitionHandler
func NewTransitionHandler(eng *engine.Engine) *TransitionHandler {
	return &TransitionHandler{engine: eng}
}

// List 列出工作流下全部流转边
// GET /tms/workflow-transitions?workflowId=
func (h *TransitionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	workflowID, ok := requireWorkflowQuery(c)
	if !ok {
		return
	}

	transitions, err := h.engine.Definitions.ListTransitions(ctx, tenantID, workflowID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(transitions)))
}

// Create 创建流转边
// POST /tms/workflow-transitions
func (h *TransitionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	var req dto.CreateTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tr, err := h.engine.Definitions.CreateTransition(ctx, tenantID, req.WorkflowID, req.Name, req.FromStateID, req.ToStateID, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(tr))
}

// Get 获取流转边详情
// GET /tms/workflow-transitions/:id
func (h *TransitionHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	tr, err := h.engine.Definitions.GetTransition(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(tr))
}

// Update 更新流转边
// PUT /tms/workflow-transitions/:id
func (h *TransitionHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.UpdateTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	tr, err := h.engine.Definitions.UpdateTransition(ctx, tenantID, id, req.Name, req.FromStateID, req.ToStateID, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(tr))
}

// Delete 删除流转边
// DELETE /tms/workflow-transitions/:id
func (h *TransitionHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	if err := h.engine.Definitions.DeleteTransition(ctx, tenantID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"message": "删除成功",
		"id":      id,
	}))
}
