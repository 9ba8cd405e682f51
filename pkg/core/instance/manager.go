package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/LENAX/tms-engine/pkg/core/definition"
	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage"
)

// Manager 工作流实例生命周期管理器（对外导出）
// 不变量：实例的CurrentStateID永远是其WorkflowID下的合法状态
// 流转引起的状态变更一律经由TransitionExecutor，这里只负责创建/查询/删除
// 与直接写入的合法性把关
type Manager struct {
	store storage.Store
	defs  *definition.Store
}

// NewManager 创建实例管理器（对外导出）
func NewManager(store storage.Store, defs *definition.Store) *Manager {
	return &Manager{store: store, defs: defs}
}

// Create 创建实例
// initialStateID为空时取Workflow的入口状态（唯一无入边状态）；
// 缺失或不唯一时返回AmbiguousEntryStateError，要求显式指定
func (m *Manager) Create(ctx context.Context, tenantID, workflowID, initialStateID, name, taskID string) (*model.WorkflowInstance, error) {
	if _, err := m.defs.GetWorkflow(ctx, tenantID, workflowID); err != nil {
		return nil, err
	}

	if initialStateID == "" {
		entry, err := m.defs.EntryState(ctx, tenantID, workflowID)
		if err != nil {
			return nil, err
		}
		initialStateID = entry.ID
	} else {
		if err := m.checkMembership(ctx, tenantID, workflowID, initialStateID); err != nil {
			return nil, err
		}
	}

	inst := model.NewWorkflowInstance(tenantID, workflowID, initialStateID)
	inst.Name = name
	inst.TaskID = taskID
	if err := m.store.SaveInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Get 查询实例并计算StateValid
// 当前状态被删除后实例悬空：读取仍然成功但StateValid=false，
// 常规流转被拒绝，只能通过特权覆写归位到存活状态
func (m *Manager) Get(ctx context.Context, tenantID, id string) (*model.WorkflowInstance, error) {
	inst, err := m.store.GetInstance(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, fmt.Errorf("%w: instance %s", model.ErrNotFound, id)
	}
	if err := m.fillStateValid(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// ListByWorkflow 列出Workflow下全部实例
func (m *Manager) ListByWorkflow(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowInstance, error) {
	out, err := m.store.ListInstancesByWorkflow(ctx, tenantID, workflowID)
	if err != nil {
		return nil, err
	}
	for _, inst := range out {
		if err := m.fillStateValid(ctx, inst); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListByTask 列出任务下全部实例
func (m *Manager) ListByTask(ctx context.Context, tenantID, taskID string) ([]*model.WorkflowInstance, error) {
	out, err := m.store.ListInstancesByTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	for _, inst := range out {
		if err := m.fillStateValid(ctx, inst); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete 删除实例（显式删除是实例消亡的唯一途径，到达终态不会删除）
// 被删实例若是某任务的默认实例，同一事务内解绑，避免任务指向已不存在的实例
func (m *Manager) Delete(ctx context.Context, tenantID, id string) error {
	inst, err := m.store.GetInstance(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if inst == nil {
		return fmt.Errorf("%w: instance %s", model.ErrNotFound, id)
	}

	return m.store.InTx(ctx, func(tx storage.Store) error {
		if inst.TaskID != "" {
			task, err := tx.GetTask(ctx, tenantID, inst.TaskID)
			if err != nil {
				return err
			}
			if task != nil && task.WorkflowInstanceID == id {
				task.WorkflowInstanceID = ""
				if err := tx.SaveTask(ctx, task); err != nil {
					return err
				}
			}
		}
		return tx.DeleteInstance(ctx, tenantID, id)
	})
}

// Update 直接更新实例元数据（name/taskId）
// 直接写入CurrentStateID必须通过checkMembership，否则InvalidStateError；
// 常规流转不允许走这条路，仅供特权覆写路径内部复用
func (m *Manager) Update(ctx context.Context, tenantID, id, name, taskID string) (*model.WorkflowInstance, error) {
	inst, err := m.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		inst.Name = name
	}
	if taskID != "" {
		inst.TaskID = taskID
	}
	if err := m.store.SaveInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// CheckMembership 校验状态属于Workflow（对外导出，执行器与覆写路径复用）
func (m *Manager) CheckMembership(ctx context.Context, tenantID, workflowID, stateID string) error {
	return m.checkMembership(ctx, tenantID, workflowID, stateID)
}

func (m *Manager) checkMembership(ctx context.Context, tenantID, workflowID, stateID string) error {
	st, err := m.defs.ListStates(ctx, tenantID, workflowID)
	if err != nil {
		return err
	}
	for _, s := range st {
		if s.ID == stateID {
			return nil
		}
	}
	return fmt.Errorf("%w: 状态 %s 不属于Workflow %s", model.ErrInvalidState, stateID, workflowID)
}

// fillStateValid 计算StateValid；只有确定的"状态不属于Workflow"才算悬空，
// 存储层读取失败原样上抛，不能把瞬时故障误判成悬空实例
func (m *Manager) fillStateValid(ctx context.Context, inst *model.WorkflowInstance) error {
	err := m.checkMembership(ctx, inst.TenantID, inst.WorkflowID, inst.CurrentStateID)
	switch {
	case err == nil:
		inst.StateValid = true
	case errors.Is(err, model.ErrInvalidState):
		inst.StateValid = false
	default:
		return err
	}
	return nil
}
