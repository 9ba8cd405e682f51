package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction 审计动作类型
type AuditAction string

const (
	AuditTransition     AuditAction = "transition"      // 常规流转提交
	AuditManualOverride AuditAction = "manual_override" // 特权手工覆写
)

// AuditEntry 审计记录：每次提交的流转与每次手工覆写各写一行（对外导出）
type AuditEntry struct {
	ID           string      `json:"id" db:"id"`
	TenantID     string      `json:"-" db:"tenant_id"`
	InstanceID   string      `json:"instanceId" db:"instance_id"`
	TransitionID string      `json:"transitionId,omitempty" db:"transition_id"`
	Action       AuditAction `json:"action" db:"action"`
	FromStateID  string      `json:"fromStateId" db:"from_state_id"`
	ToStateID    string      `json:"toStateId" db:"to_state_id"`
	Actor        string      `json:"actor,omitempty" db:"actor"`
	Reason       string      `json:"reason,omitempty" db:"reason"`
	CreateTime   time.Time   `json:"createdAt" db:"create_time"`
}

// NewAuditEntry 创建审计记录（对外导出）
func NewAuditEntry(tenantID, instanceID string, action AuditAction) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		InstanceID: instanceID,
		Action:     action,
		CreateTime: time.Now(),
	}
}
