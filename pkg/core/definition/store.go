package definition

import (
	"context"
	"fmt"
	"log"

	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage"
)

// Store 工作流定义存储：Workflow/State/Transition静态图的唯一拥有者（对外导出）
// 不变量：流转两端必须是同一Workflow的已有状态；同一Workflow内状态key唯一；
// 删除状态时级联删除引用它的流转（由引擎显式计算并在同一事务内执行）
type Store struct {
	store storage.Store
}

// NewStore 创建定义存储（对外导出）
func NewStore(store storage.Store) *Store {
	return &Store{store: store}
}

// ========== Workflow ==========

// CreateWorkflow 创建Workflow定义
func (s *Store) CreateWorkflow(ctx context.Context, tenantID, name, description, definition string) (*model.Workflow, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name不能为空", model.ErrValidation)
	}
	wf := model.NewWorkflow(tenantID, name, description)
	wf.Definition = definition
	if err := s.store.SaveWorkflow(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

// GetWorkflow 查询Workflow定义
func (s *Store) GetWorkflow(ctx context.Context, tenantID, id string) (*model.Workflow, error) {
	wf, err := s.store.GetWorkflow(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: workflow %s", model.ErrNotFound, id)
	}
	return wf, nil
}

// ListWorkflows 列出租户下全部Workflow定义
func (s *Store) ListWorkflows(ctx context.Context, tenantID string) ([]*model.Workflow, error) {
	return s.store.ListWorkflows(ctx, tenantID)
}

// UpdateWorkflow 更新Workflow元数据字段（名称/描述/展示定义）
// 状态引用该Workflow后结构即不可变，仅元数据可改
func (s *Store) UpdateWorkflow(ctx context.Context, tenantID, id, name, description, definition string) (*model.Workflow, error) {
	wf, err := s.GetWorkflow(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		wf.Name = name
	}
	wf.Description = description
	wf.Definition = definition
	if err := s.store.SaveWorkflow(ctx, wf); err != nil {
		return nil, err
	}
	return wf, nil
}

// DeleteWorkflow 删除Workflow定义及其全部状态与流转（单事务）
func (s *Store) DeleteWorkflow(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetWorkflow(ctx, tenantID, id); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx storage.Store) error {
		states, err := tx.ListStates(ctx, tenantID, id)
		if err != nil {
			return err
		}
		for _, st := range states {
			if _, err := tx.DeleteTransitionsTouchingState(ctx, tenantID, id, st.ID); err != nil {
				return err
			}
			if err := tx.DeleteState(ctx, tenantID, st.ID); err != nil {
				return err
			}
		}
		return tx.DeleteWorkflow(ctx, tenantID, id)
	})
}

// ========== WorkflowState ==========

// CreateState 创建状态节点，key同Workflow内唯一
func (s *Store) CreateState(ctx context.Context, tenantID, workflowID, key, name string) (*model.WorkflowState, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: state key不能为空", model.ErrValidation)
	}
	if _, err := s.GetWorkflow(ctx, tenantID, workflowID); err != nil {
		return nil, err
	}
	dup, err := s.store.GetStateByKey(ctx, tenantID, workflowID, key)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, fmt.Errorf("%w: key %q 已存在于该Workflow", model.ErrValidation, key)
	}
	st := model.NewWorkflowState(tenantID, workflowID, key, name)
	if err := s.store.SaveState(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// GetState 查询状态节点
func (s *Store) GetState(ctx context.Context, tenantID, id string) (*model.WorkflowState, error) {
	st, err := s.store.GetState(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: state %s", model.ErrNotFound, id)
	}
	return st, nil
}

// ListStates 列出Workflow下全部状态节点
func (s *Store) ListStates(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowState, error) {
	return s.store.ListStates(ctx, tenantID, workflowID)
}

// UpdateState 更新状态节点，key变更时重新校验唯一性
func (s *Store) UpdateState(ctx context.Context, tenantID, id, key, name string) (*model.WorkflowState, error) {
	st, err := s.GetState(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if key != "" && key != st.Key {
		dup, err := s.store.GetStateByKey(ctx, tenantID, st.WorkflowID, key)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, fmt.Errorf("%w: key %q 已存在于该Workflow", model.ErrValidation, key)
		}
		st.Key = key
	}
	if name != "" {
		st.Name = name
	}
	if err := s.store.SaveState(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteState 删除状态节点并级联删除引用它的流转
// 级联由引擎显式计算并与删除在同一事务提交，可观测可审计；不依赖数据库级联
func (s *Store) DeleteState(ctx context.Context, tenantID, id string) error {
	st, err := s.GetState(ctx, tenantID, id)
	if err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx storage.Store) error {
		n, err := tx.DeleteTransitionsTouchingState(ctx, tenantID, st.WorkflowID, st.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("⚠️ [定义存储] 删除状态 %s 级联删除了 %d 条流转", st.ID, n)
		}
		return tx.DeleteState(ctx, tenantID, st.ID)
	})
}

// ========== WorkflowTransition ==========

// validateEdge 校验流转两端是同一Workflow的已有状态
func (s *Store) validateEdge(ctx context.Context, tenantID, workflowID, fromStateID, toStateID string) error {
	for _, stateID := range []string{fromStateID, toStateID} {
		st, err := s.store.GetState(ctx, tenantID, stateID)
		if err != nil {
			return err
		}
		if st == nil || st.WorkflowID != workflowID {
			return fmt.Errorf("%w: 状态 %s 不属于Workflow %s", model.ErrInvalidReference, stateID, workflowID)
		}
	}
	return nil
}

// validateMetadata 校验元数据引用的SLA策略存在
func (s *Store) validateMetadata(ctx context.Context, tenantID string, meta model.TransitionMetadata) error {
	if err := meta.Validate(); err != nil {
		return err
	}
	if meta.SlaPolicyID != "" {
		p, err := s.store.GetPolicy(ctx, tenantID, meta.SlaPolicyID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: sla policy %s", model.ErrNotFound, meta.SlaPolicyID)
		}
	}
	return nil
}

// CreateTransition 创建流转边
func (s *Store) CreateTransition(ctx context.Context, tenantID, workflowID, name, fromStateID, toStateID string, meta model.TransitionMetadata) (*model.WorkflowTransition, error) {
	if _, err := s.GetWorkflow(ctx, tenantID, workflowID); err != nil {
		return nil, err
	}
	if err := s.validateEdge(ctx, tenantID, workflowID, fromStateID, toStateID); err != nil {
		return nil, err
	}
	if err := s.validateMetadata(ctx, tenantID, meta); err != nil {
		return nil, err
	}
	tr := model.NewWorkflowTransition(tenantID, workflowID, name, fromStateID, toStateID)
	tr.Metadata = meta
	if err := s.store.SaveTransition(ctx, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// GetTransition 查询流转边
func (s *Store) GetTransition(ctx context.Context, tenantID, id string) (*model.WorkflowTransition, error) {
	tr, err := s.store.GetTransition(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, fmt.Errorf("%w: transition %s", model.ErrNotFound, id)
	}
	return tr, nil
}

// ListTransitions 列出Workflow下全部流转边
func (s *Store) ListTransitions(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowTransition, error) {
	return s.store.ListTransitions(ctx, tenantID, workflowID)
}

// UpdateTransition 更新流转边，重新校验端点与元数据
func (s *Store) UpdateTransition(ctx context.Context, tenantID, id, name, fromStateID, toStateID string, meta model.TransitionMetadata) (*model.WorkflowTransition, error) {
	tr, err := s.GetTransition(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if fromStateID == "" {
		fromStateID = tr.FromStateID
	}
	if toStateID == "" {
		toStateID = tr.ToStateID
	}
	if err := s.validateEdge(ctx, tenantID, tr.WorkflowID, fromStateID, toStateID); err != nil {
		return nil, err
	}
	if err := s.validateMetadata(ctx, tenantID, meta); err != nil {
		return nil, err
	}
	if name != "" {
		tr.Name = name
	}
	tr.FromStateID = fromStateID
	tr.ToStateID = toStateID
	tr.Metadata = meta
	if err := s.store.SaveTransition(ctx, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// DeleteTransition 删除流转边
func (s *Store) DeleteTransition(ctx context.Context, tenantID, id string) error {
	if _, err := s.GetTransition(ctx, tenantID, id); err != nil {
		return err
	}
	return s.store.DeleteTransition(ctx, tenantID, id)
}

// EntryState 返回Workflow的入口状态：唯一一个无入边的状态
// 缺失或不唯一时返回AmbiguousEntryStateError，要求调用方显式指定
func (s *Store) EntryState(ctx context.Context, tenantID, workflowID string) (*model.WorkflowState, error) {
	states, err := s.store.ListStates(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}
	transitions, err := s.store.ListTransitions(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(states))
	for _, st := range states {
		inDegree[st.ID] = 0
	}
	for _, tr := range transitions {
		// 自环不把节点变成非入口
		if tr.FromStateID == tr.ToStateID {
			continue
		}
		inDegree[tr.ToStateID]++
	}

	var entry *model.WorkflowState
	for _, st := range states {
		if inDegree[st.ID] == 0 {
			if entry != nil {
				return nil, fmt.Errorf("%w: workflow %s 存在多个无入边状态", model.ErrAmbiguousEntryState, workflowID)
			}
			entry = st
		}
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: workflow %s 没有无入边状态", model.ErrAmbiguousEntryState, workflowID)
	}
	return entry, nil
}

// TransitionsFrom 返回以该状态为起点的流转边
func (s *Store) TransitionsFrom(ctx context.Context, tenantID, workflowID, fromStateID string) ([]*model.WorkflowTransition, error) {
	transitions, err := s.store.ListTransitions(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.WorkflowTransition, 0)
	for _, tr := range transitions {
		if tr.FromStateID == fromStateID {
			out = append(out, tr)
		}
	}
	return out, nil
}
