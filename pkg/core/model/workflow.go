package model

import (
	"time"

	"github.com/google/uuid"
)

// Workflow 工作流定义：状态与流转组成的有向图（对外导出）
// Definition 字段仅用于展示层元数据，权威结构始终是State/Transition表
type Workflow struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"-" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Definition  string    `json:"definition,omitempty" db:"definition"`
	CreateTime  time.Time `json:"createdAt" db:"create_time"`
}

// NewWorkflow 创建Workflow（对外导出）
func NewWorkflow(tenantID, name, description string) *Workflow {
	return &Workflow{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		CreateTime:  time.Now(),
	}
}

// WorkflowState 工作流状态节点（对外导出）
// Key 是稳定的机器标识，同一Workflow内唯一；Name 仅用于展示
type WorkflowState struct {
	ID         string `json:"id" db:"id"`
	TenantID   string `json:"-" db:"tenant_id"`
	WorkflowID string `json:"workflowId" db:"workflow_id"`
	Key        string `json:"key" db:"state_key"`
	Name       string `json:"name" db:"name"`
}

// NewWorkflowState 创建WorkflowState（对外导出）
func NewWorkflowState(tenantID, workflowID, key, name string) *WorkflowState {
	return &WorkflowState{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		WorkflowID: workflowID,
		Key:        key,
		Name:       name,
	}
}

// WorkflowTransition 工作流流转边（对外导出）
// FromStateID/ToStateID 必须属于同一WorkflowID，由DefinitionStore强制校验
type WorkflowTransition struct {
	ID          string             `json:"id" db:"id"`
	TenantID    string             `json:"-" db:"tenant_id"`
	WorkflowID  string             `json:"workflowId" db:"workflow_id"`
	Name        string             `json:"name" db:"name"`
	FromStateID string             `json:"fromStateId" db:"from_state_id"`
	ToStateID   string             `json:"toStateId" db:"to_state_id"`
	Metadata    TransitionMetadata `json:"metadata" db:"-"`
}

// NewWorkflowTransition 创建WorkflowTransition（对外导出）
func NewWorkflowTransition(tenantID, workflowID, name, fromStateID, toStateID string) *WorkflowTransition {
	return &WorkflowTransition{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		WorkflowID:  workflowID,
		Name:        name,
		FromStateID: fromStateID,
		ToStateID:   toStateID,
	}
}
