package task

import (
	"context"
	"fmt"

	"github.com/LENAX/tms-engine/pkg/core/definition"
	"github.com/LENAX/tms-engine/pkg/core/executor"
	"github.com/LENAX/tms-engine/pkg/core/instance"
	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage"
)

// Coordinator 任务生命周期协调器（对外导出）
// 对外暴露任务的指派/绑定/流转操作，保证Task.Status与默认实例当前状态key同步
// 契约：存在默认实例时Status永远是其当前状态的key；未绑定实例时Status是
// 调用方自由设置的字符串，不受任何工作流不变量约束
type Coordinator struct {
	store     storage.Store
	defs      *definition.Store
	instances *instance.Manager
	executor  *executor.Executor
}

// NewCoordinator 创建任务协调器（对外导出）
func NewCoordinator(store storage.Store, defs *definition.Store, instances *instance.Manager, exec *executor.Executor) *Coordinator {
	return &Coordinator{store: store, defs: defs, instances: instances, executor: exec}
}

// CreateTask 创建任务
func (c *Coordinator) CreateTask(ctx context.Context, tenantID string, t *model.Task) (*model.Task, error) {
	if t.Title == "" {
		return nil, fmt.Errorf("%w: title不能为空", model.ErrValidation)
	}
	task := model.NewTask(tenantID, t.TypeKey, t.Title, t.Priority, t.ReporterID)
	task.Status = t.Status
	task.AssigneeID = t.AssigneeID
	task.SlaPolicyID = t.SlaPolicyID
	if err := c.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask 查询任务
func (c *Coordinator) GetTask(ctx context.Context, tenantID, id string) (*model.Task, error) {
	t, err := c.store.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: task %s", model.ErrNotFound, id)
	}
	return t, nil
}

// ListTasks 列出租户下全部任务
func (c *Coordinator) ListTasks(ctx context.Context, tenantID string) ([]*model.Task, error) {
	return c.store.ListTasks(ctx, tenantID)
}

// UpdateTask 更新任务字段
// 绑定默认实例后Status只读（由流转镜像），直接写入被拒绝
func (c *Coordinator) UpdateTask(ctx context.Context, tenantID, id string, patch *model.Task) (*model.Task, error) {
	t, err := c.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if patch.Status != "" && patch.Status != t.Status {
		if t.HasDefaultInstance() {
			return nil, fmt.Errorf("%w: 任务已绑定默认实例，status由工作流镜像，不可直接写入", model.ErrValidation)
		}
		t.Status = patch.Status
	}
	if patch.Title != "" {
		t.Title = patch.Title
	}
	if patch.TypeKey != "" {
		t.TypeKey = patch.TypeKey
	}
	if patch.Priority != "" {
		t.Priority = patch.Priority
	}
	if patch.AssigneeID != "" {
		t.AssigneeID = patch.AssigneeID
	}
	if patch.SlaPolicyID != "" {
		t.SlaPolicyID = patch.SlaPolicyID
	}
	if err := c.store.SaveTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Assign 指派任务（纯归属变更，无状态机含义）
func (c *Coordinator) Assign(ctx context.Context, tenantID, id, assigneeID string) (*model.Task, error) {
	if assigneeID == "" {
		return nil, fmt.Errorf("%w: assigneeId不能为空", model.ErrValidation)
	}
	t, err := c.GetTask(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	t.AssigneeID = assigneeID
	if err := c.store.SaveTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateInstance 为任务创建工作流实例并可选设为默认
// 设为默认时任务状态立即镜像为实例当前状态的key
func (c *Coordinator) CreateInstance(ctx context.Context, tenantID, taskID, workflowID, initialStateID string, asDefault bool) (*model.WorkflowInstance, error) {
	t, err := c.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	inst, err := c.instances.Create(ctx, tenantID, workflowID, initialStateID, "", taskID)
	if err != nil {
		return nil, err
	}
	if asDefault {
		if err := c.setDefault(ctx, t, inst); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// SetDefaultInstance 绑定任务的默认实例
// 实例必须已关联该任务；一个任务至多一个默认实例
func (c *Coordinator) SetDefaultInstance(ctx context.Context, tenantID, taskID, instanceID string) (*model.Task, error) {
	t, err := c.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	inst, err := c.instances.Get(ctx, tenantID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.TaskID != taskID {
		return nil, fmt.Errorf("%w: 实例 %s 不属于任务 %s", model.ErrInvalidReference, instanceID, taskID)
	}
	if err := c.setDefault(ctx, t, inst); err != nil {
		return nil, err
	}
	return c.GetTask(ctx, tenantID, taskID)
}

func (c *Coordinator) setDefault(ctx context.Context, t *model.Task, inst *model.WorkflowInstance) error {
	// 绑定即镜像：状态读不到就整体失败，不能让Task.Status留在旧值
	st, err := c.defs.GetState(ctx, t.TenantID, inst.CurrentStateID)
	if err != nil {
		return err
	}
	t.WorkflowInstanceID = inst.ID
	t.Status = st.Key
	return c.store.SaveTask(ctx, t)
}

// RequestTransition 请求任务流转到目标状态key
// 解析默认实例当前状态到目标key的唯一出边后委托执行器；
// 执行器在提交事务内完成状态镜像，这里只负责解析与转发
func (c *Coordinator) RequestTransition(ctx context.Context, tenantID, taskID, toKey, reason string) (*executor.Result, error) {
	t, err := c.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if !t.HasDefaultInstance() {
		return nil, fmt.Errorf("%w: 任务 %s 未绑定默认实例", model.ErrValidation, taskID)
	}
	inst, err := c.instances.Get(ctx, tenantID, t.WorkflowInstanceID)
	if err != nil {
		return nil, err
	}

	edges, err := c.defs.TransitionsFrom(ctx, tenantID, inst.WorkflowID, inst.CurrentStateID)
	if err != nil {
		return nil, err
	}
	var target *model.WorkflowTransition
	for _, tr := range edges {
		st, err := c.defs.GetState(ctx, tenantID, tr.ToStateID)
		if err != nil {
			continue
		}
		if st.Key == toKey {
			target = tr
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: 当前状态没有到 %q 的出边", model.ErrInvalidTransition, toKey)
	}

	return c.executor.RequestTransition(ctx, tenantID, inst.ID, target.ID, reason)
}
