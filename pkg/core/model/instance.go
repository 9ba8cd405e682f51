package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowInstance 工作流实例：指向某个Workflow图内当前状态的活指针（对外导出）
// 不变量：CurrentStateID 必须是 WorkflowID 的合法状态，每次写入都强制校验
// Version 是乐观并发计数器，所有状态变更都以版本CAS提交
type WorkflowInstance struct {
	ID             string    `json:"id" db:"id"`
	TenantID       string    `json:"-" db:"tenant_id"`
	WorkflowID     string    `json:"workflowId" db:"workflow_id"`
	CurrentStateID string    `json:"currentStateId" db:"current_state_id"`
	Name           string    `json:"name,omitempty" db:"name"`
	TaskID         string    `json:"taskId,omitempty" db:"task_id"`
	Version        int64     `json:"version" db:"version"`
	CreateTime     time.Time `json:"createdAt" db:"create_time"`

	// StateValid 读取时计算：当前状态是否仍然存在于所属Workflow
	// 状态被删除后实例会悬空，常规流转被拒绝，仅特权覆写可修复
	StateValid bool `json:"stateValid" db:"-"`
}

// NewWorkflowInstance 创建WorkflowInstance（对外导出）
func NewWorkflowInstance(tenantID, workflowID, currentStateID string) *WorkflowInstance {
	return &WorkflowInstance{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		WorkflowID:     workflowID,
		CurrentStateID: currentStateID,
		Version:        1,
		CreateTime:     time.Now(),
		StateValid:     true,
	}
}
