package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
)

// Recovery panic恢复中间件
// 带租户与请求路径记录堆栈，统一返回500信封，不向客户端泄露内部细节
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("💥 [API] panic恢复: %v tenant=%s %s %s\n%s",
					r, c.GetString("tenantID"), c.Request.Method, c.Request.URL.Path, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewErrorResponse(500, "服务器内部错误"))
			}
		}()
		c.Next()
	}
}
