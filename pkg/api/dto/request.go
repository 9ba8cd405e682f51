package dto

import (
	"github.com/LENAX/tms-engine/pkg/core/model"
)

// CreateWorkflowRequest 创建工作流定义请求
type CreateWorkflowRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Definition  string `json:"definition"`
}

// UpdateWorkflowRequest 更新工作流定义请求
type UpdateWorkflowRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Definition  string `json:"definition"`
}

// CreateStateRequest 创建状态请求
type CreateStateRequest struct {
	WorkflowID string `json:"workflowId" binding:"required"`
	Key        string `json:"key" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

// UpdateStateRequest 更新状态请求
type UpdateStateRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CreateTransitionRequest 创建流转边请求
type CreateTransitionRequest struct {
	WorkflowID  string                   `json:"workflowId" binding:"required"`
	Name        string                   `json:"name"`
	FromStateID string                   `json:"fromStateId" binding:"required"`
	ToStateID   string                   `json:"toStateId" binding:"required"`
	Metadata    model.TransitionMetadata `json:"metadata"`
}

// UpdateTransitionRequest 更新流转边请求
type UpdateTransitionRequest struct {
	Name        string                   `json:"name"`
	FromStateID string                   `json:"fromStateId"`
	ToStateID   string                   `json:"toStateId"`
	Metadata    model.TransitionMetadata `json:"metadata"`
}

// CreateInstanceRequest 创建工作流实例请求
// initialStateId为空时自动推断入口状态
type CreateInstanceRequest struct {
	WorkflowID     string `json:"workflowId" binding:"required"`
	InitialStateID string `json:"initialStateId"`
	Name           string `json:"name"`
	TaskID         string `json:"taskId"`
}

// UpdateInstanceRequest 更新工作流实例请求
type UpdateInstanceRequest struct {
	Name   string `json:"name"`
	TaskID string `json:"taskId"`
}

// OverrideRequest 管理员手动改状态请求
type OverrideRequest struct {
	ToStateID string `json:"toStateId" binding:"required"`
	Actor     string `json:"actor"`
	Reason    string `json:"reason"`
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	TypeKey     string `json:"typeKey"`
	Title       string `json:"title" binding:"required"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	ReporterID  string `json:"reporterId"`
	AssigneeID  string `json:"assigneeId"`
	SlaPolicyID string `json:"slaPolicyId"`
}

// UpdateTaskRequest 更新任务请求
type UpdateTaskRequest struct {
	TypeKey     string `json:"typeKey"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssigneeID  string `json:"assigneeId"`
	SlaPolicyID string `json:"slaPolicyId"`
}

// BindInstanceRequest 任务绑定工作流实例请求
// instanceId非空时绑定既有实例，否则按workflowId新建
type BindInstanceRequest struct {
	WorkflowID     string `json:"workflowId"`
	InstanceID     string `json:"instanceId"`
	InitialStateID string `json:"initialStateId"`
	AsDefault      bool   `json:"asDefault"`
}

// CreateSlaPolicyRequest 创建SLA策略请求
type CreateSlaPolicyRequest struct {
	Name            string             `json:"name" binding:"required"`
	DurationSeconds int64              `json:"durationSeconds" binding:"required"`
	BreachAction    model.BreachAction `json:"breachAction"`
}

// StartTimerRequest 启动SLA计时器请求
type StartTimerRequest struct {
	TaskID   string `json:"taskId" binding:"required"`
	PolicyID string `json:"policyId" binding:"required"`
}

// RespondApprovalRequest 审批响应请求
type RespondApprovalRequest struct {
	Comment string `json:"comment"`
}
