package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// WorkflowHandler 工作流定义API处理器
type WorkflowHandler struct {
	engine *engine.Engine
}

// NewWorkflowHandler 创建WorkflowHandler
func NewWorkflowHandler(eng *engine.Engine) *WorkflowHandler {
	return &WorkflowHandler{engine: eng}
}

// List 列出租户下全部工作流
// GET /tms/workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	workflows, err := h.engine.Definitions.ListWorkflows(ctx, tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(workflows)))
}

// Create 创建工作流
// POST /tms/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	var req dto.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	wf, err := h.engine.Definitions.CreateWorkflow(ctx, tenantID, req.Name, req.Description, req.Definition)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(wf))
}

// Get 获取工作流详情
// GET /tms/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	wf, err := h.engine.Definitions.GetWorkflow(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(wf))
}

// Update 更新工作流
// PUT /tms/workflows/:id
func (h *WorkflowHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.UpdateWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	wf, err := h.engine.Definitions.UpdateWorkflow(ctx, tenantID, id, req.Name, req.Description, req.Definition)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(wf))
}

// Delete 删除工作流（级联删除其状态、边与实例引用）
// DELETE /tms/workflows/:id
func (h *WorkflowHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	if err := h.engine.Definitions.DeleteWorkflow(ctx, tenantID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"message": "删除成功",
		"id":      id,
	}))
}

// EntryState 推断工作流入口状态
// GET /tms/workflows/:id/entry-state
func (h *WorkflowHandler) EntryState(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	st, err := h.engine.Definitions.EntryState(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(st))
}

// requireWorkflowQuery 解析必填的workflowId查询参数
func requireWorkflowQuery(c *gin.Context) (string, bool) {
	workflowID := c.Query("workflowId")
	if workflowID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少workflowId查询参数"))
		return "", false
	}
	return workflowID, true
}
