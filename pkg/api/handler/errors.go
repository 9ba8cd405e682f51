package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/core/model"
)

// writeError 领域错误到HTTP状态码的统一映射
// 400 参数/校验错误；404 实体不存在；409 版本冲突与审批链违规；
// 422 引用/边/入口/状态约束违规；其余一律500
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrOutOfSequence),
		errors.Is(err, model.ErrAlreadyResolved):
		status = http.StatusConflict
	case errors.Is(err, model.ErrInvalidReference),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrAmbiguousEntryState),
		errors.Is(err, model.ErrInvalidState):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, dto.NewErrorResponse(status, err.Error()))
}

// bindError 请求体解析失败的统一响应
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, "请求参数错误: "+err.Error()))
}
