package task

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/tms-engine/pkg/core/approval"
	"github.com/LENAX/tms-engine/pkg/core/definition"
	"github.com/LENAX/tms-engine/pkg/core/executor"
	"github.com/LENAX/tms-engine/pkg/core/instance"
	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/core/sla"
	"github.com/LENAX/tms-engine/pkg/storage/sqldb"
)

const testTenant = "tenant-a"

type fixture struct {
	coord *Coordinator
	defs  *definition.Store
	wf    *model.Workflow
	st    map[string]*model.WorkflowState
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqldb.Open("sqlite", dbPath)
	require.NoError(t, err, "创建存储失败")
	t.Cleanup(func() { store.Close() })

	defs := definition.NewStore(store)
	instances := instance.NewManager(store, defs)
	approvals := approval.NewEngine(store)
	slaSched := sla.NewScheduler(store, nil)
	exec := executor.NewExecutor(store, defs, instances, approvals, slaSched, nil)
	coord := NewCoordinator(store, defs, instances, exec)

	wf, err := defs.CreateWorkflow(ctx, testTenant, "issue-flow", "", "")
	require.NoError(t, err)
	states := make(map[string]*model.WorkflowState)
	for _, key := range []string{"todo", "doing", "done"} {
		st, err := defs.CreateState(ctx, testTenant, wf.ID, key, key)
		require.NoError(t, err)
		states[key] = st
	}
	_, err = defs.CreateTransition(ctx, testTenant, wf.ID, "start", states["todo"].ID, states["doing"].ID, model.TransitionMetadata{})
	require.NoError(t, err)
	_, err = defs.CreateTransition(ctx, testTenant, wf.ID, "finish", states["doing"].ID, states["done"].ID, model.TransitionMetadata{})
	require.NoError(t, err)

	return &fixture{coord: coord, defs: defs, wf: wf, st: states}
}

func newBug(t *testing.T, c *Coordinator) *model.Task {
	t.Helper()
	task, err := c.CreateTask(context.Background(), testTenant, &model.Task{
		TypeKey:    "bug",
		Title:      "修复登录异常",
		Priority:   "high",
		ReporterID: "alice",
		Status:     "open",
	})
	require.NoError(t, err)
	return task
}

func TestSetDefaultRejectsDanglingInstance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	task := newBug(t, f.coord)
	inst, err := f.coord.CreateInstance(ctx, testTenant, task.ID, f.wf.ID, "", false)
	require.NoError(t, err)

	// 实例当前状态被删除后绑定必须失败，任务状态不能被污染
	require.NoError(t, f.defs.DeleteState(ctx, testTenant, f.st["todo"].ID))

	_, err = f.coord.SetDefaultInstance(ctx, testTenant, task.ID, inst.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	got, err := f.coord.GetTask(ctx, testTenant, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "open", got.Status)
	assert.False(t, got.HasDefaultInstance())
}

func TestCreateTask(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	task := newBug(t, f.coord)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "open", task.Status)
	assert.False(t, task.HasDefaultInstance())

	got, err := f.coord.GetTask(ctx, testTenant, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "修复登录异常", got.Title)

	// title为空拒绝
	_, err = f.coord.CreateTask(ctx, testTenant, &model.Task{TypeKey: "bug"})
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestUpdateStatusFreeWhenUnbound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	// 未绑定实例时status是自由字符串
	got, err := f.coord.UpdateTask(ctx, testTenant, task.ID, &model.Task{Status: "随便什么"})
	require.NoError(t, err)
	assert.Equal(t, "随便什么", got.Status)
}

func TestUpdateStatusRejectedWhenBound(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	_, err := f.coord.CreateInstance(ctx, testTenant, task.ID, f.wf.ID, "", true)
	require.NoError(t, err)

	// 绑定默认实例后status由工作流镜像，直接写入被拒绝
	_, err = f.coord.UpdateTask(ctx, testTenant, task.ID, &model.Task{Status: "done"})
	assert.True(t, errors.Is(err, model.ErrValidation))

	// 其他字段仍可更新
	got, err := f.coord.UpdateTask(ctx, testTenant, task.ID, &model.Task{Priority: "low"})
	require.NoError(t, err)
	assert.Equal(t, "low", got.Priority)
	assert.Equal(t, "todo", got.Status)
}

func TestAssign(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	got, err := f.coord.Assign(ctx, testTenant, task.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", got.AssigneeID)

	_, err = f.coord.Assign(ctx, testTenant, task.ID, "")
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestCreateInstanceAsDefaultMirrorsStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	inst, err := f.coord.CreateInstance(ctx, testTenant, task.ID, f.wf.ID, "", true)
	require.NoError(t, err)
	assert.Equal(t, task.ID, inst.TaskID)
	assert.Equal(t, f.st["todo"].ID, inst.CurrentStateID)

	// 绑定即镜像：status从open变为入口状态key
	got, err := f.coord.GetTask(ctx, testTenant, task.ID)
	require.NoError(t, err)
	assert.Equal(t, inst.ID, got.WorkflowInstanceID)
	assert.Equal(t, "todo", got.Status)
}

func TestCreateInstanceNotDefault(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	inst, err := f.coord.CreateInstance(ctx, testTenant, task.ID, f.wf.ID, "", false)
	require.NoError(t, err)
	assert.Equal(t, task.ID, inst.TaskID)

	// 非默认实例不动status
	got, err := f.coord.GetTask(ctx, testTenant, task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.WorkflowInstanceID)
	assert.Equal(t, "open", got.Status)
}

func TestSetDefaultInstance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	inst, err := f.coord.CreateInstance(ctx, testTenant, task.ID, f.wf.ID, "", false)
	require.NoError(t, err)

	got, err := f.coord.SetDefaultInstance(ctx, testTenant, task.ID, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, inst.ID, got.WorkflowInstanceID)
	assert.Equal(t, "todo", got.Status)

	// 不属于该任务的实例不能绑定
	other := newBug(t, f.coord)
	_, err = f.coord.SetDefaultInstance(ctx, testTenant, other.ID, inst.ID)
	assert.True(t, errors.Is(err, model.ErrInvalidReference))
}

func TestRequestTransitionByKey(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	_, err := f.coord.CreateInstance(ctx, testTenant, task.ID, f.wf.ID, "", true)
	require.NoError(t, err)

	// 按目标状态key流转，读回的status与状态key一致
	res, err := f.coord.RequestTransition(ctx, testTenant, task.ID, "doing", "开工")
	require.NoError(t, err)
	assert.Equal(t, "doing", res.Task.Status)
	assert.Equal(t, f.st["doing"].ID, res.Instance.CurrentStateID)

	got, err := f.coord.GetTask(ctx, testTenant, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "doing", got.Status)

	// 当前状态没有到目标key的出边
	_, err = f.coord.RequestTransition(ctx, testTenant, task.ID, "todo", "")
	assert.True(t, errors.Is(err, model.ErrInvalidTransition))
}

func TestRequestTransitionRequiresDefaultInstance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	task := newBug(t, f.coord)

	_, err := f.coord.RequestTransition(ctx, testTenant, task.ID, "doing", "")
	assert.True(t, errors.Is(err, model.ErrValidation))
}
