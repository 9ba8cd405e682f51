package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
	"github.com/LENAX/tms-engine/pkg/core/model"
)

// InstanceHandler 工作流实例API处理器
type InstanceHandler struct {
	engine *engine.Engine
}

// NewInstanceHandler 创建InstanceHandler
func NewInstanceHandler(eng *engine.Engine) *InstanceHandler {
	return &InstanceHandler{engine: eng}
}

// List 按workflowId或taskId列出实例
// GET /tms/workflows/instances?workflowId=|taskId=
func (h *InstanceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	workflowID := c.Query("workflowId")
	taskID := c.Query("taskId")

	var (
		instances []*model.WorkflowInstance
		err       error
	)
	switch {
	case workflowID != "":
		instances, err = h.engine.Instances.ListByWorkflow(ctx, tenantID, workflowID)
	case taskID != "":
		instances, err = h.engine.Instances.ListByTask(ctx, tenantID, taskID)
	default:
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少workflowId或taskId查询参数"))
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(instances)))
}

// Create 创建实例（initialStateId为空时推断入口状态）
// POST /tms/workflows/instances
func (h *InstanceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	var req dto.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	inst, err := h.engine.Instances.Create(ctx, tenantID, req.WorkflowID, req.InitialStateID, req.Name, req.TaskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(inst))
}

// Get 获取实例详情（stateValid标记当前状态是否仍存在）
// GET /tms/workflows/instances/:id
func (h *InstanceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	inst, err := h.engine.Instances.Get(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(inst))
}

// Update 更新实例（只允许name/taskId，状态变更走流转或override）
// PUT /tms/workflows/instances/:id
func (h *InstanceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.UpdateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	inst, err := h.engine.Instances.Update(ctx, tenantID, id, req.Name, req.TaskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(inst))
}

// Delete 删除实例
// DELETE /tms/workflows/instances/:id
func (h *InstanceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	if err := h.engine.Instances.Delete(ctx, tenantID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"message": "删除成功",
		"id":      id,
	}))
}

// Override 管理员手动改状态：绕过边校验与审批门控，但仍做
// 工作流归属校验、版本CAS、计时器收口与任务状态镜像，并落审计
// POST /tms/workflows/instances/:id/override
func (h *InstanceHandler) Override(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.engine.Executor.Override(ctx, tenantID, id, req.ToStateID, req.Actor, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.TransitionResponse{
		Task:     res.Task,
		Instance: res.Instance,
	}))
}
