package approval

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage"
)

// Engine 审批链引擎：门控流转请求的有序审批序列（对外导出）
// 算法：严格顺序审批——只有最小未决序号的pending记录可被处理；
// 通过链头要么解决整条链，要么激活下一序号（queued→pending）；
// 任一拒绝立即废弃整条链（剩余记录级联rejected），被门控的流转随之废弃
type Engine struct {
	store storage.Store
}

// NewEngine 创建审批链引擎（对外导出）
func NewEngine(store storage.Store) *Engine {
	return &Engine{store: store}
}

// Decision 审批决定
type Decision string

const (
	DecisionApprove Decision = "approve" // 通过
	DecisionReject  Decision = "reject"  // 拒绝
)

// OpenChain 为一次被门控的流转请求创建有序审批链
// 链头进入pending，其余序号排队；同一(task, transition)已有活链时直接返回它（幂等）
func (e *Engine) OpenChain(ctx context.Context, tenantID, taskID, transitionID, instanceID string, approvers []model.ApproverRef) (*model.ApprovalChain, error) {
	if len(approvers) == 0 {
		return nil, fmt.Errorf("%w: 审批链不能为空", model.ErrValidation)
	}

	existing, err := e.store.GetLiveChain(ctx, tenantID, taskID, transitionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	chain := model.NewApprovalChain(tenantID, taskID, transitionID, instanceID)
	err = e.store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.SaveChain(ctx, chain); err != nil {
			return err
		}
		for i, ref := range approvers {
			status := model.ApprovalQueued
			if i == 0 {
				status = model.ApprovalPending
			}
			a := model.NewApproval(chain, i+1, ref, status)
			if err := tx.SaveApproval(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📝 [审批引擎] 已开启审批链: chain=%s task=%s transition=%s 共%d级", chain.ID, taskID, transitionID, len(approvers))
	return chain, nil
}

// Respond 处理一条审批记录
// 只接受链头（最小未决序号的pending记录）；非链头返回OutOfSequenceError；
// 并发应答同一链头时败者返回AlreadyResolvedError
func (e *Engine) Respond(ctx context.Context, tenantID, approvalID string, decision Decision, comment string) (*model.Approval, error) {
	a, err := e.store.GetApproval(ctx, tenantID, approvalID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: approval %s", model.ErrNotFound, approvalID)
	}

	switch a.Status {
	case model.ApprovalPending:
		// 链头，可处理
	case model.ApprovalQueued:
		return nil, fmt.Errorf("%w: 序号 %d 之前还有未决审批", model.ErrOutOfSequence, a.Sequence)
	default:
		return nil, fmt.Errorf("%w: approval %s 已是 %s", model.ErrAlreadyResolved, approvalID, a.Status)
	}

	chain, err := e.store.GetChain(ctx, tenantID, a.ChainID)
	if err != nil {
		return nil, err
	}
	if chain == nil || chain.Status != model.ChainOpen {
		return nil, fmt.Errorf("%w: 审批链已关闭", model.ErrAlreadyResolved)
	}

	now := time.Now()
	var target model.ApprovalStatus
	if decision == DecisionApprove {
		target = model.ApprovalApproved
	} else {
		target = model.ApprovalRejected
	}

	err = e.store.InTx(ctx, func(tx storage.Store) error {
		// pending守卫下的原子应答，并发败者在这里出局
		ok, err := tx.RespondApproval(ctx, tenantID, a.ID, target, comment, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: approval %s 已被并发处理", model.ErrAlreadyResolved, a.ID)
		}

		if target == model.ApprovalRejected {
			// 拒绝立即废弃整条链
			if _, err := tx.CascadeReject(ctx, tenantID, chain.ID, now); err != nil {
				return err
			}
			if _, err := tx.UpdateChainStatus(ctx, tenantID, chain.ID, model.ChainOpen, model.ChainRejected, now); err != nil {
				return err
			}
			log.Printf("🛑 [审批引擎] 审批链被拒绝: chain=%s approval=%s seq=%d", chain.ID, a.ID, a.Sequence)
			return nil
		}

		// 通过链头：解决整条链或激活下一序号
		all, err := tx.ListApprovalsByChain(ctx, tenantID, chain.ID)
		if err != nil {
			return err
		}
		var next *model.Approval
		for _, item := range all {
			if item.Status == model.ApprovalQueued && (next == nil || item.Sequence < next.Sequence) {
				next = item
			}
		}
		if next == nil {
			if _, err := tx.UpdateChainStatus(ctx, tenantID, chain.ID, model.ChainOpen, model.ChainResolved, now); err != nil {
				return err
			}
			log.Printf("✅ [审批引擎] 审批链全部通过: chain=%s", chain.ID)
			return nil
		}
		if _, err := tx.ActivateApproval(ctx, tenantID, next.ID); err != nil {
			return err
		}
		log.Printf("➡️ [审批引擎] 激活下一级审批: chain=%s seq=%d", chain.ID, next.Sequence)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return e.store.GetApproval(ctx, tenantID, a.ID)
}

// IsChainResolved 仅当链内每条审批都approved时返回true
func (e *Engine) IsChainResolved(ctx context.Context, tenantID, taskID, transitionID string) (bool, error) {
	chain, err := e.store.GetLiveChain(ctx, tenantID, taskID, transitionID)
	if err != nil {
		return false, err
	}
	if chain == nil {
		return false, nil
	}
	if chain.Status != model.ChainResolved {
		return false, nil
	}
	all, err := e.store.ListApprovalsByChain(ctx, tenantID, chain.ID)
	if err != nil {
		return false, err
	}
	for _, a := range all {
		if a.Status != model.ApprovalApproved {
			return false, nil
		}
	}
	return true, nil
}

// LiveChain 返回(task, transition)下的活链（open或resolved），无则(nil, nil)
func (e *Engine) LiveChain(ctx context.Context, tenantID, taskID, transitionID string) (*model.ApprovalChain, error) {
	return e.store.GetLiveChain(ctx, tenantID, taskID, transitionID)
}

// ListByTask 列出任务下全部审批记录
func (e *Engine) ListByTask(ctx context.Context, tenantID, taskID string) ([]*model.Approval, error) {
	return e.store.ListApprovalsByTask(ctx, tenantID, taskID)
}

// ListByChain 按序号列出链内审批记录
func (e *Engine) ListByChain(ctx context.Context, tenantID, chainID string) ([]*model.Approval, error) {
	return e.store.ListApprovalsByChain(ctx, tenantID, chainID)
}
