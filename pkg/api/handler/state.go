package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// StateHandler 工作流状态API处理器
type StateHandler struct {
	engine *engine.Engine
}

// NewStateHandler 创建StateHandler
func NewStateHandler(eng *engine.Engine) *StateHandler {
	return &StateHandler{engine: eng}
}

// List 列出工作流下全部状态
// GET /tms/workflow-states?workflowId=
func (h *StateHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	workflowID, ok := requireWorkflowQuery(c)
	if !ok {
		return
	}

	states, err := h.engine.Definitions.ListStates(ctx, tenantID, workflowID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(states)))
}

// Create 创建状态
// POST /tms/workflow-states
func (h *StateHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	var req dto.CreateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	st, err := h.engine.Definitions.CreateState(ctx, tenantID, req.WorkflowID, req.Key, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(st))
}

// Get 获取状态详情
// GET /tms/workflow-states/:id
func (h *StateHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	st, err := h.engine.Definitions.GetState(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(st))
}

// Update 更新状态
// PUT /tms/workflow-states/:id
func (h *StateHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	st, err := h.engine.Definitions.UpdateState(ctx, tenantID, id, req.Key, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(st))
}

// Delete 删除状态（同事务级联删除关联的流转边）
// DELETE /tms/workflow-states/:id
func (h *StateHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	if err := h.engine.Definitions.DeleteState(ctx, tenantID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"message": "删除成功",
		"id":      id,
	}))
}
