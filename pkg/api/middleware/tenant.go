package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/core/tenant"
)

// TenantHeader 租户标识请求头
const TenantHeader = "X-Tenant-ID"

// Tenant 租户中间件：缺少X-Tenant-ID直接拒绝
// 租户ID注入请求上下文，后续所有存储访问按租户隔离
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "缺少X-Tenant-ID请求头"))
			c.Abort()
			return
		}

		ctx := tenant.WithTenant(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("tenantID", tenantID)
		c.Next()
	}
}

// TenantID 从gin上下文取租户ID
func TenantID(c *gin.Context) string {
	return c.GetString("tenantID")
}
