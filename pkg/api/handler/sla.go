package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// SlaHandler SLA策略与计时器API处理器
type SlaHandler struct {
	engine *engine.Engine
}

// NewSlaHandler 创建SlaHandler
func NewSlaHandler(eng *engine.Engine) *SlaHandler {
	return &SlaHandler{engine: eng}
}

// ListPolicies 列出租户下全部SLA策略
// GET /tms/sla-policies
func (h *SlaHandler) ListPolicies(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	policies, err := h.engine.Sla.ListPolicies(ctx, tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(policies)))
}

// CreatePolicy 创建SLA策略
// POST /tms/sla-policies
func (h *SlaHandler) CreatePolicy(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	var req dto.CreateSlaPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	p, err := h.engine.Sla.CreatePolicy(ctx, tenantID, req.Name, req.DurationSeconds, req.BreachAction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(p))
}

// GetPolicy 获取SLA策略详情
// GET /tms/sla-policies/:id
func (h *SlaHandler) GetPolicy(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	p, err := h.engine.Sla.GetPolicy(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(p))
}

// ListTimers 列出任务下全部计时器
// GET /tms/sla-timers?taskId=
func (h *SlaHandler) ListTimers(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	taskID := c.Query("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少taskId查询参数"))
		return
	}

	timers, err := h.engine.Sla.ListTimersByTask(ctx, tenantID, taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(timers)))
}

// StartTimer 手动启动计时器（同任务同策略的旧活跃计时器被隐式停止）
// POST /tms/sla-timers
func (h *SlaHandler) StartTimer(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	var req dto.StartTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	t, err := h.engine.Sla.StartTimer(ctx, tenantID, req.TaskID, req.PolicyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(t))
}

// StopTimer 手动停止计时器（已停止或已超期为无操作）
// POST /tms/sla-timers/:id/stop
func (h *SlaHandler) StopTimer(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)
	id := c.Param("id")

	t, err := h.engine.Sla.StopTimer(ctx, tenantID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(t))
}
