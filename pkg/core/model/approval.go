package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus 审批状态
type ApprovalStatus string

const (
	ApprovalQueued   ApprovalStatus = "queued"   // 排队中（前序未决，不可处理）
	ApprovalPending  ApprovalStatus = "pending"  // 待处理（链头）
	ApprovalApproved ApprovalStatus = "approved" // 已通过
	ApprovalRejected ApprovalStatus = "rejected" // 已拒绝（含级联拒绝）
)

// ChainStatus 审批链状态
type ChainStatus string

const (
	ChainOpen     ChainStatus = "open"     // 进行中
	ChainResolved ChainStatus = "resolved" // 全部通过，门已放行
	ChainRejected ChainStatus = "rejected" // 任一拒绝，流转废弃
	ChainConsumed ChainStatus = "consumed" // 对应流转已提交
)

// ApprovalChain 审批链：门控单次流转请求的有序审批序列（对外导出）
type ApprovalChain struct {
	ID           string      `json:"id" db:"id"`
	TenantID     string      `json:"-" db:"tenant_id"`
	TaskID       string      `json:"taskId" db:"task_id"`
	TransitionID string      `json:"transitionId" db:"transition_id"`
	InstanceID   string      `json:"instanceId" db:"instance_id"`
	Status       ChainStatus `json:"status" db:"status"`
	CreateTime   time.Time   `json:"createdAt" db:"create_time"`
	ResolvedAt   *time.Time  `json:"resolvedAt,omitempty" db:"resolved_at"`
}

// NewApprovalChain 创建审批链（对外导出）
func NewApprovalChain(tenantID, taskID, transitionID, instanceID string) *ApprovalChain {
	return &ApprovalChain{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		TaskID:       taskID,
		TransitionID: transitionID,
		InstanceID:   instanceID,
		Status:       ChainOpen,
		CreateTime:   time.Now(),
	}
}

// Approval 单条审批记录（对外导出）
// Sequence 决定链内处理顺序，只有最小未决序号的pending记录可被处理
type Approval struct {
	ID              string         `json:"id" db:"id"`
	TenantID        string         `json:"-" db:"tenant_id"`
	ChainID         string         `json:"chainId" db:"chain_id"`
	TaskID          string         `json:"taskId" db:"task_id"`
	Sequence        int            `json:"sequence" db:"sequence"`
	ApproverKind    ApproverKind   `json:"approverKind" db:"approver_kind"`
	ApproverID      string         `json:"approverId" db:"approver_id"`
	Status          ApprovalStatus `json:"status" db:"status"`
	RequestedAt     time.Time      `json:"requestedAt" db:"requested_at"`
	RespondedAt     *time.Time     `json:"respondedAt,omitempty" db:"responded_at"`
	ResponseComment string         `json:"responseComment,omitempty" db:"response_comment"`
}

// NewApproval 创建审批记录（对外导出）
// 链头（最小序号）直接进入pending，其余排队
func NewApproval(chain *ApprovalChain, sequence int, approver ApproverRef, status ApprovalStatus) *Approval {
	return &Approval{
		ID:           uuid.NewString(),
		TenantID:     chain.TenantID,
		ChainID:      chain.ID,
		TaskID:       chain.TaskID,
		Sequence:     sequence,
		ApproverKind: approver.Kind,
		ApproverID:   approver.ID,
		Status:       status,
		RequestedAt:  time.Now(),
	}
}
