package model

import (
	"time"

	"github.com/google/uuid"
)

// Task 任务实体（对外导出）
// Status 是默认实例当前状态key的展示层镜像；未绑定实例时为调用方自由设置的字符串
// WorkflowInstanceID 指向"默认"实例——一个任务可以有零个、一个或多个实例，默认至多一个
type Task struct {
	ID                 string    `json:"id" db:"id"`
	TenantID           string    `json:"-" db:"tenant_id"`
	TypeKey            string    `json:"typeKey" db:"type_key"`
	Title              string    `json:"title" db:"title"`
	Status             string    `json:"status" db:"status"`
	Priority           string    `json:"priority" db:"priority"`
	ReporterID         string    `json:"reporterId" db:"reporter_id"`
	AssigneeID         string    `json:"assigneeId,omitempty" db:"assignee_id"`
	SlaPolicyID        string    `json:"slaPolicyId,omitempty" db:"sla_policy_id"`
	WorkflowInstanceID string    `json:"workflowInstanceId,omitempty" db:"workflow_instance_id"`
	CreateTime         time.Time `json:"createdAt" db:"create_time"`
	UpdateTime         time.Time `json:"updatedAt" db:"update_time"`
}

// NewTask 创建Task（对外导出）
func NewTask(tenantID, typeKey, title, priority, reporterID string) *Task {
	now := time.Now()
	return &Task{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		TypeKey:    typeKey,
		Title:      title,
		Priority:   priority,
		ReporterID: reporterID,
		CreateTime: now,
		UpdateTime: now,
	}
}

// HasDefaultInstance 是否绑定了默认实例
func (t *Task) HasDefaultInstance() bool {
	return t.WorkflowInstanceID != ""
}
