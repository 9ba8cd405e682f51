package dto

import (
	"time"

	"github.com/LENAX/tms-engine/pkg/core/model"
)

// APIResponse 通用API响应结构
type APIResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string) APIResponse[any] {
	return APIResponse[any]{
		Code:    code,
		Message: message,
	}
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// NewListResponse 创建列表响应
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Total: len(items), Items: items}
}

// TransitionResponse 流转请求响应
// 提交成功返回task+instance；被审批门控时pendingApproval=true并附链信息
type TransitionResponse struct {
	Task            *model.Task             `json:"task,omitempty"`
	Instance        *model.WorkflowInstance `json:"instance,omitempty"`
	PendingApproval bool                    `json:"pendingApproval,omitempty"`
	ChainID         string                  `json:"chainId,omitempty"`
	Approvals       []*model.Approval       `json:"approvals,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// FormatUptime 格式化运行时长
func FormatUptime(d time.Duration) string {
	return d.Round(time.Second).String()
}
