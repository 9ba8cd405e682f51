package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
	"github.com/LENAX/tms-engine/pkg/core/model"
)

// TaskHandler 任务API处理器
type TaskHandler struct {
	engine *engine.Engine
}

// NewTaskHandler 创建TaskHandler
func NewTaskHandler(eng *engine.Engine) *TaskHandler {
	return &TaskHandler{engine: eng}
}

// List 列出租户下全部任务
// GET /tms/tasks
func (h *TaskHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	tasks, err := h.engine.Tasks.ListTasks(ctx, tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(tasks)))
}

// Create 创建任务
// POST /tms/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	t, err := h.engine.Tasks.CreateTask(ctx, tenantID, &model.Task{
		TypeKey:     req.TypeKey,
		Title:       req.Title,
		Status:      req.Status,
		Priority:    req.Priority,
		ReporterID:  req.ReporterID,
		AssigneeID:  req.AssigneeID,
		SlaPolicyID: req.SlaPolicyID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(t))
}

// Get 获取任务详情
// GET /tms/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	t, err := h.engine.Tasks.GetTask(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(t))
}

// Update 更新任务（绑定默认实例后status只读）
// PUT /tms/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	t, err := h.engine.Tasks.UpdateTask(ctx, tenantID, id, &model.Task{
		TypeKey:     req.TypeKey,
		Title:       req.Title,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		SlaPolicyID: req.SlaPolicyID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(t))
}

// Assign 指派任务（纯归属变更，无状态机含义）
// POST /tms/tasks/:id/assign?assigneeId=
func (h *TaskHandler) Assign(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	assigneeID := c.Query("assigneeId")
	if assigneeID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少assigneeId查询参数"))
		return
	}

	t, err := h.engine.Tasks.Assign(ctx, tenantID, id, assigneeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(t))
}

// Transition 请求任务流转到目标状态key
// POST /tms/tasks/:id/transition?to=&reason=
func (h *TaskHandler) Transition(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	to := c.Query("to")
	if to == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少to查询参数"))
		return
	}
	reason := c.Query("reason")

	res, err := h.engine.Tasks.RequestTransition(ctx, tenantID, id, to, reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.TransitionResponse{
		Task:            res.Task,
		Instance:        res.Instance,
		PendingApproval: res.PendingApproval,
		ChainID:         res.ChainID,
		Approvals:       res.Approvals,
	}))
}

// BindInstance 为任务创建实例并可选设为默认；instanceId非空时绑定既有实例
// POST /tms/tasks/:id/instances
func (h *TaskHandler) BindInstance(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	var req dto.BindInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if req.InstanceID != "" {
		t, err := h.engine.Tasks.SetDefaultInstance(ctx, tenantID, id, req.InstanceID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(t))
		return
	}

	if req.WorkflowID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "workflowId和instanceId必须二选一"))
		return
	}
	inst, err := h.engine.Tasks.CreateInstance(ctx, tenantID, id, req.WorkflowID, req.InitialStateID, req.AsDefault)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(inst))
}
