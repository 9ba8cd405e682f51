package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// AuditHandler 审计记录API处理器
type AuditHandler struct {
	engine *engine.Engine
}

// NewAuditHandler 创建AuditHandler
func NewAuditHandler(eng *engine.Engine) *AuditHandler {
	return &AuditHandler{engine: eng}
}

// List 列出实例的审计记录（流转与手动改状态）
// GET /tms/audit?instanceId=
func (h *AuditHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tenantID := middleware.TenantID(c)

	instanceID := c.Query("instanceId")
	if instanceID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少instanceId查询参数"))
		return
	}

	entries, err := h.engine.Store().ListAuditByInstance(ctx, tenantID, instanceID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewListResponse(entries)))
}
