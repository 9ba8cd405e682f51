package executor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/LENAX/tms-engine/pkg/core/approval"
	"github.com/LENAX/tms-engine/pkg/core/definition"
	"github.com/LENAX/tms-engine/pkg/core/events"
	"github.com/LENAX/tms-engine/pkg/core/instance"
	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/core/sla"
	"github.com/LENAX/tms-engine/pkg/storage"
)

// Executor 流转执行器：端到端编排单次流转请求（对外导出）
// 校验边 → 审批门控 → 版本CAS提交状态变更 + 计时器启停 + 任务状态镜像，
// 三者在同一事务内提交或全不提交
// 实例级互斥锁只覆盖版本检查与下游写入；读取与校验在锁外进行，
// 并发请求在version上竞争，败者收到ConflictError，执行器绝不自动重试
type Executor struct {
	store     storage.Store
	defs      *definition.Store
	instances *instance.Manager
	approvals *approval.Engine
	sla       *sla.Scheduler
	publisher message.Publisher

	locks sync.Map // tenantID/instanceID -> *sync.Mutex
}

// NewExecutor 创建流转执行器（对外导出）
func NewExecutor(store storage.Store, defs *definition.Store, instances *instance.Manager, approvals *approval.Engine, slaSched *sla.Scheduler, publisher message.Publisher) *Executor {
	return &Executor{
		store:     store,
		defs:      defs,
		instances: instances,
		approvals: approvals,
		sla:       slaSched,
		publisher: publisher,
	}
}

// Result 流转请求结果（对外导出）
// 提交成功时携带更新后的Task/Instance；被审批门控时PendingApproval=true，
// 对该次调用而言"待审批"是终态响应，不是挂起
type Result struct {
	Task            *model.Task             `json:"task,omitempty"`
	Instance        *model.WorkflowInstance `json:"instance,omitempty"`
	PendingApproval bool                    `json:"pendingApproval,omitempty"`
	ChainID         string                  `json:"chainId,omitempty"`
	Approvals       []*model.Approval       `json:"approvals,omitempty"`
}

// lockInstance 实例级互斥锁（按需创建，进程内单写者）
func (e *Executor) lockInstance(tenantID, instanceID string) *sync.Mutex {
	key := tenantID + "/" + instanceID
	mu, _ := e.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// RequestTransition 请求一次流转
// 1. 校验 transition.FromStateID == instance.CurrentStateID，否则InvalidTransitionError
// 2. 需要审批且无活链时开链并返回待审批（不应用流转）
// 3. 链未解决时幂等返回同样的待审批结果
// 4. 已解决（或无门控）时CAS提交；版本不匹配返回ConflictError
// 5. 元数据携带slaPolicyId时启动计时器并停掉旧状态下不同策略的计时器
// 6. 任务状态镜像与审计随同一事务提交，事后发布流转事件
func (e *Executor) RequestTransition(ctx context.Context, tenantID, instanceID, transitionID, reason string) (*Result, error) {
	inst, err := e.instances.Get(ctx, tenantID, instanceID)
	if err != nil {
		return nil, err
	}
	if !inst.StateValid {
		return nil, fmt.Errorf("%w: 实例 %s 的当前状态已不存在，需要手工覆写修复", model.ErrInvalidState, instanceID)
	}

	tr, err := e.defs.GetTransition(ctx, tenantID, transitionID)
	if err != nil {
		return nil, err
	}
	if tr.WorkflowID != inst.WorkflowID {
		return nil, fmt.Errorf("%w: 流转 %s 不属于Workflow %s", model.ErrInvalidReference, transitionID, inst.WorkflowID)
	}
	if tr.FromStateID != inst.CurrentStateID {
		return nil, fmt.Errorf("%w: 流转 %s 的起点不是实例当前状态", model.ErrInvalidTransition, transitionID)
	}

	gateTaskID := inst.TaskID
	if gateTaskID == "" {
		// 未绑定任务的实例以自身ID作为审批链作用域
		gateTaskID = inst.ID
	}

	var chain *model.ApprovalChain
	if tr.Metadata.RequiresApproval() {
		chain, err = e.approvals.LiveChain(ctx, tenantID, gateTaskID, transitionID)
		if err != nil {
			return nil, err
		}
		if chain == nil {
			chain, err = e.approvals.OpenChain(ctx, tenantID, gateTaskID, transitionID, instanceID, tr.Metadata.Approvers)
			if err != nil {
				return nil, err
			}
			return e.pendingResult(ctx, tenantID, chain)
		}
		resolved, err := e.approvals.IsChainResolved(ctx, tenantID, gateTaskID, transitionID)
		if err != nil {
			return nil, err
		}
		if !resolved {
			return e.pendingResult(ctx, tenantID, chain)
		}
	}

	// 锁外读到的版本在锁内做CAS：并发败者带着过期版本到达这里，拿到ConflictError
	mu := e.lockInstance(tenantID, instanceID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.commit(ctx, inst, tr, chain, reason); err != nil {
		return nil, err
	}

	e.publishTransition(tenantID, inst.ID, tr.ID, tr.FromStateID, tr.ToStateID, false)
	return e.finalResult(ctx, tenantID, inst.ID, inst.TaskID)
}

// commit 在单事务内完成CAS状态写入、计时器启停、任务状态镜像、链消费与审计
func (e *Executor) commit(ctx context.Context, inst *model.WorkflowInstance, tr *model.WorkflowTransition, chain *model.ApprovalChain, reason string) error {
	tenantID := inst.TenantID
	now := time.Now()

	return e.store.InTx(ctx, func(tx storage.Store) error {
		ok, err := tx.CASInstanceState(ctx, tenantID, inst.ID, tr.ToStateID, inst.Version)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: instance %s version %d 已过期", model.ErrConflict, inst.ID, inst.Version)
		}

		if inst.TaskID != "" {
			// 离开旧状态：停掉与新策略不同的活跃计时器
			if err := e.stopOtherTimers(ctx, tx, tenantID, inst.TaskID, tr.Metadata.SlaPolicyID, now); err != nil {
				return err
			}
			if tr.Metadata.SlaPolicyID != "" {
				if _, err := e.sla.StartTimerIn(ctx, tx, tenantID, inst.TaskID, tr.Metadata.SlaPolicyID, now); err != nil {
					return err
				}
			}
			if err := e.mirrorTaskStatus(ctx, tx, tenantID, inst.TaskID, inst.ID, tr.ToStateID); err != nil {
				return err
			}
		}

		if chain != nil {
			// 防止自环边复用旧审批：链随提交一并消费
			if _, err := tx.UpdateChainStatus(ctx, tenantID, chain.ID, model.ChainResolved, model.ChainConsumed, now); err != nil {
				return err
			}
		}

		audit := model.NewAuditEntry(tenantID, inst.ID, model.AuditTransition)
		audit.TransitionID = tr.ID
		audit.FromStateID = tr.FromStateID
		audit.ToStateID = tr.ToStateID
		audit.Reason = reason
		return tx.SaveAudit(ctx, audit)
	})
}

// Override 特权手工覆写：跳过边校验与审批门控，仍然CAS提交并审计
// 悬空实例（当前状态被删除）唯一的修复路径；目标状态必须属于实例的Workflow
func (e *Executor) Override(ctx context.Context, tenantID, instanceID, toStateID, actor, reason string) (*Result, error) {
	inst, err := e.instances.Get(ctx, tenantID, instanceID)
	if err != nil {
		return nil, err
	}
	if err := e.instances.CheckMembership(ctx, tenantID, inst.WorkflowID, toStateID); err != nil {
		return nil, err
	}

	mu := e.lockInstance(tenantID, instanceID)
	mu.Lock()
	defer mu.Unlock()

	fromStateID := inst.CurrentStateID
	now := time.Now()
	err = e.store.InTx(ctx, func(tx storage.Store) error {
		ok, err := tx.CASInstanceState(ctx, tenantID, inst.ID, toStateID, inst.Version)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: instance %s version %d 已过期", model.ErrConflict, inst.ID, inst.Version)
		}

		if inst.TaskID != "" {
			// 覆写没有流转元数据，不启动新计时器，只收口旧的
			if err := e.stopOtherTimers(ctx, tx, tenantID, inst.TaskID, "", now); err != nil {
				return err
			}
			if err := e.mirrorTaskStatus(ctx, tx, tenantID, inst.TaskID, inst.ID, toStateID); err != nil {
				return err
			}
		}

		audit := model.NewAuditEntry(tenantID, inst.ID, model.AuditManualOverride)
		audit.FromStateID = fromStateID
		audit.ToStateID = toStateID
		audit.Actor = actor
		audit.Reason = reason
		return tx.SaveAudit(ctx, audit)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🔧 [执行器] 手工覆写: instance=%s %s→%s actor=%s", instanceID, fromStateID, toStateID, actor)
	e.publishTransition(tenantID, instanceID, "", fromStateID, toStateID, true)
	return e.finalResult(ctx, tenantID, instanceID, inst.TaskID)
}

// stopOtherTimers 停掉任务下策略不同于keepPolicyID的活跃计时器
func (e *Executor) stopOtherTimers(ctx context.Context, tx storage.Store, tenantID, taskID, keepPolicyID string, now time.Time) error {
	active, err := tx.ListActiveTimersByTask(ctx, tenantID, taskID)
	if err != nil {
		return err
	}
	for _, t := range active {
		if keepPolicyID != "" && t.PolicyID == keepPolicyID {
			continue
		}
		if _, err := tx.StopTimer(ctx, tenantID, t.ID, now); err != nil {
			return err
		}
	}
	return nil
}

// mirrorTaskStatus 任务状态镜像：默认实例的当前状态key写入Task.Status
func (e *Executor) mirrorTaskStatus(ctx context.Context, tx storage.Store, tenantID, taskID, instanceID, toStateID string) error {
	task, err := tx.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return err
	}
	if task == nil || task.WorkflowInstanceID != instanceID {
		// 非默认实例不镜像
		return nil
	}
	st, err := tx.GetState(ctx, tenantID, toStateID)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%w: state %s", model.ErrNotFound, toStateID)
	}
	task.Status = st.Key
	return tx.SaveTask(ctx, task)
}

// pendingResult 构造待审批结果
func (e *Executor) pendingResult(ctx context.Context, tenantID string, chain *model.ApprovalChain) (*Result, error) {
	approvals, err := e.approvals.ListByChain(ctx, tenantID, chain.ID)
	if err != nil {
		return nil, err
	}
	return &Result{PendingApproval: true, ChainID: chain.ID, Approvals: approvals}, nil
}

// finalResult 读取提交后的Task/Instance组装结果
func (e *Executor) finalResult(ctx context.Context, tenantID, instanceID, taskID string) (*Result, error) {
	inst, err := e.instances.Get(ctx, tenantID, instanceID)
	if err != nil {
		return nil, err
	}
	res := &Result{Instance: inst}
	if taskID != "" {
		task, err := e.store.GetTask(ctx, tenantID, taskID)
		if err != nil {
			return nil, err
		}
		res.Task = task
	}
	return res, nil
}

// publishTransition 提交后发布流转事件（发后不管，失败只记日志）
func (e *Executor) publishTransition(tenantID, instanceID, transitionID, fromStateID, toStateID string, manual bool) {
	if e.publisher == nil {
		return
	}
	msg, err := events.NewMessage(events.TransitionEvent{
		TenantID:     tenantID,
		InstanceID:   instanceID,
		TransitionID: transitionID,
		FromStateID:  fromStateID,
		ToStateID:    toStateID,
		Manual:       manual,
		OccurredAt:   time.Now(),
	})
	if err != nil {
		log.Printf("⚠️ [执行器] 构造流转事件失败: %v", err)
		return
	}
	if err := e.publisher.Publish(events.TopicTransition, msg); err != nil {
		log.Printf("⚠️ [执行器] 发布流转事件失败: instance=%s err=%v", instanceID, err)
	}
}
