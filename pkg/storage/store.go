package storage

import (
	"context"
	"time"

	"github.com/LENAX/tms-engine/pkg/core/model"
)

// WorkflowRepository Workflow定义存储接口（对外导出）
// 查询方法在记录不存在时返回 (nil, nil)，由上层包装NotFound语义
type WorkflowRepository interface {
	SaveWorkflow(ctx context.Context, wf *model.Workflow) error
	GetWorkflow(ctx context.Context, tenantID, id string) (*model.Workflow, error)
	ListWorkflows(ctx context.Context, tenantID string) ([]*model.Workflow, error)
	DeleteWorkflow(ctx context.Context, tenantID, id string) error
}

// StateRepository WorkflowState存储接口（对外导出）
type StateRepository interface {
	SaveState(ctx context.Context, st *model.WorkflowState) error
	GetState(ctx context.Context, tenantID, id string) (*model.WorkflowState, error)
	GetStateByKey(ctx context.Context, tenantID, workflowID, key string) (*model.WorkflowState, error)
	ListStates(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowState, error)
	DeleteState(ctx context.Context, tenantID, id string) error
}

// TransitionRepository WorkflowTransition存储接口（对外导出）
type TransitionRepository interface {
	SaveTransition(ctx context.Context, tr *model.WorkflowTransition) error
	GetTransition(ctx context.Context, tenantID, id string) (*model.WorkflowTransition, error)
	ListTransitions(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowTransition, error)
	DeleteTransition(ctx context.Context, tenantID, id string) error
	// DeleteTransitionsTouchingState 删除以该状态为起点或终点的所有流转（级联用）
	DeleteTransitionsTouchingState(ctx context.Context, tenantID, workflowID, stateID string) (int64, error)
}

// InstanceRepository WorkflowInstance存储接口（对外导出）
type InstanceRepository interface {
	SaveInstance(ctx context.Context, inst *model.WorkflowInstance) error
	GetInstance(ctx context.Context, tenantID, id string) (*model.WorkflowInstance, error)
	ListInstancesByWorkflow(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowInstance, error)
	ListInstancesByTask(ctx context.Context, tenantID, taskID string) ([]*model.WorkflowInstance, error)
	DeleteInstance(ctx context.Context, tenantID, id string) error
	// CASInstanceState 版本CAS写入当前状态，版本不匹配时返回false
	CASInstanceState(ctx context.Context, tenantID, id, toStateID string, expectedVersion int64) (bool, error)
}

// TaskRepository Task存储接口（对外导出）
type TaskRepository interface {
	SaveTask(ctx context.Context, t *model.Task) error
	GetTask(ctx context.Context, tenantID, id string) (*model.Task, error)
	ListTasks(ctx context.Context, tenantID string) ([]*model.Task, error)
}

// SlaRepository SLA策略与计时器存储接口（对外导出）
type SlaRepository interface {
	SavePolicy(ctx context.Context, p *model.SlaPolicy) error
	GetPolicy(ctx context.Context, tenantID, id string) (*model.SlaPolicy, error)
	ListPolicies(ctx context.Context, tenantID string) ([]*model.SlaPolicy, error)

	SaveTimer(ctx context.Context, t *model.SlaTimer) error
	GetTimer(ctx context.Context, tenantID, id string) (*model.SlaTimer, error)
	ListTimersByTask(ctx context.Context, tenantID, taskID string) ([]*model.SlaTimer, error)
	// GetActiveTimer 返回(taskID, policyID)下未停止未超期的计时器
	GetActiveTimer(ctx context.Context, tenantID, taskID, policyID string) (*model.SlaTimer, error)
	// ListActiveTimersByTask 返回任务下所有活跃计时器
	ListActiveTimersByTask(ctx context.Context, tenantID, taskID string) ([]*model.SlaTimer, error)
	// StopTimer 受 stopped_at IS NULL AND breached=false 守卫的停止写入
	StopTimer(ctx context.Context, tenantID, id string, at time.Time) (bool, error)
	// ListDueTimers 枚举全部租户的到期活跃计时器（后台扫描用）
	ListDueTimers(ctx context.Context, now time.Time) ([]*model.SlaTimer, error)
	// MarkBreached 受同一守卫的超期写入，与StopTimer互斥，先提交者胜
	MarkBreached(ctx context.Context, tenantID, id string, at time.Time) (bool, error)
}

// ApprovalRepository 审批链与审批记录存储接口（对外导出）
type ApprovalRepository interface {
	SaveChain(ctx context.Context, c *model.ApprovalChain) error
	GetChain(ctx context.Context, tenantID, id string) (*model.ApprovalChain, error)
	// GetLiveChain 返回(taskID, transitionID)下最近一条open或resolved的链
	GetLiveChain(ctx context.Context, tenantID, taskID, transitionID string) (*model.ApprovalChain, error)
	UpdateChainStatus(ctx context.Context, tenantID, id string, from, to model.ChainStatus, at time.Time) (bool, error)

	SaveApproval(ctx context.Context, a *model.Approval) error
	GetApproval(ctx context.Context, tenantID, id string) (*model.Approval, error)
	ListApprovalsByChain(ctx context.Context, tenantID, chainID string) ([]*model.Approval, error)
	ListApprovalsByTask(ctx context.Context, tenantID, taskID string) ([]*model.Approval, error)
	// RespondApproval 受 status='pending' 守卫的应答写入，并发败者返回false
	RespondApproval(ctx context.Context, tenantID, id string, to model.ApprovalStatus, comment string, at time.Time) (bool, error)
	// ActivateApproval queued→pending 激活下一序号
	ActivateApproval(ctx context.Context, tenantID, id string) (bool, error)
	// CascadeReject 将链内所有pending/queued记录置为rejected
	CascadeReject(ctx context.Context, tenantID, chainID string, at time.Time) (int64, error)
}

// AuditRepository 审计记录存储接口（对外导出）
type AuditRepository interface {
	SaveAudit(ctx context.Context, e *model.AuditEntry) error
	ListAuditByInstance(ctx context.Context, tenantID, instanceID string) ([]*model.AuditEntry, error)
}

// Store 全部Repository的聚合 + 事务边界（对外导出）
// InTx 内的回调拿到绑定同一事务的Store视图，嵌套调用直接复用外层事务
type Store interface {
	WorkflowRepository
	StateRepository
	TransitionRepository
	InstanceRepository
	TaskRepository
	SlaRepository
	ApprovalRepository
	AuditRepository

	InTx(ctx context.Context, fn func(Store) error) error
}
