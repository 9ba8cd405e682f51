package instance

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/tms-engine/pkg/core/definition"
	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage"
	"github.com/LENAX/tms-engine/pkg/storage/sqldb"
)

const testTenant = "tenant-a"

type fixture struct {
	store storage.Store
	defs  *definition.Store
	mgr   *Manager
	wf    *model.Workflow
	st    map[string]*model.WorkflowState
}

// setup 建临时sqlite存储和一个 todo → doing → done 工作流
func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqldb.Open("sqlite", dbPath)
	require.NoError(t, err, "创建存储失败")
	t.Cleanup(func() { store.Close() })

	defs := definition.NewStore(store)
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

	return &fixture{
		store: store,
		defs:  defs,
		mgr:   NewManager(store, defs),
		wf:    wf,
		st:    states,
	}
}

// flakyStore 包装底层存储，按开关注入状态列表的读取失败
type flakyStore struct {
	storage.Store
	failListStates bool
}

func (f *flakyStore) ListStates(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowState, error) {
	if f.failListStates {
		return nil, errors.New("存储暂时不可用")
	}
	return f.Store.ListStates(ctx, tenantID, workflowID)
}

func TestCreateWithEntryInference(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// 不指定初始状态时推断唯一入口 todo
	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "发布流程", "")
	require.NoError(t, err)
	assert.Equal(t, f.st["todo"].ID, inst.CurrentStateID)
	assert.Equal(t, "发布流程", inst.Name)

	got, err := f.mgr.Get(ctx, testTenant, inst.ID)
	require.NoError(t, err)
	assert.True(t, got.StateValid)
}

func TestCreateWithExplicitInitialState(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, f.st["doing"].ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, f.st["doing"].ID, inst.CurrentStateID)
}

func TestCreateRejectsForeignInitialState(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// 别的工作流的状态不能作为初始状态
	wf2, err := f.defs.CreateWorkflow(ctx, testTenant, "other", "", "")
	require.NoError(t, err)
	foreign, err := f.defs.CreateState(ctx, testTenant, wf2.ID, "open", "open")
	require.NoError(t, err)

	_, err = f.mgr.Create(ctx, testTenant, f.wf.ID, foreign.ID, "", "")
	assert.True(t, errors.Is(err, model.ErrInvalidState))
}

func TestCreateAmbiguousEntryRequiresExplicit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// 加一个孤立状态后入口不唯一，推断失败
	_, err := f.defs.CreateState(ctx, testTenant, f.wf.ID, "blocked", "blocked")
	require.NoError(t, err)

	_, err = f.mgr.Create(ctx, testTenant, f.wf.ID, "", "", "")
	assert.True(t, errors.Is(err, model.ErrAmbiguousEntryState))

	// 显式指定仍然可用
	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, f.st["todo"].ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, f.st["todo"].ID, inst.CurrentStateID)
}

func TestCreateMissingWorkflow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.mgr.Create(ctx, testTenant, "no-such-workflow", "", "", "")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDanglingInstanceAfterStateDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "", "")
	require.NoError(t, err)

	// 删除实例当前所在的状态：实例悬空但可读
	require.NoError(t, f.defs.DeleteState(ctx, testTenant, f.st["todo"].ID))

	got, err := f.mgr.Get(ctx, testTenant, inst.ID)
	require.NoError(t, err)
	assert.False(t, got.StateValid)
	assert.Equal(t, f.st["todo"].ID, got.CurrentStateID)
}

func TestUpdateMetadata(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "旧名字", "")
	require.NoError(t, err)

	got, err := f.mgr.Update(ctx, testTenant, inst.ID, "新名字", "task-1")
	require.NoError(t, err)
	assert.Equal(t, "新名字", got.Name)
	assert.Equal(t, "task-1", got.TaskID)

	// 更新不触碰当前状态
	assert.Equal(t, inst.CurrentStateID, got.CurrentStateID)
}

func TestListByWorkflowAndTask(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "a", "task-1")
	require.NoError(t, err)
	_, err = f.mgr.Create(ctx, testTenant, f.wf.ID, "", "b", "task-1")
	require.NoError(t, err)
	_, err = f.mgr.Create(ctx, testTenant, f.wf.ID, "", "c", "task-2")
	require.NoError(t, err)

	byWf, err := f.mgr.ListByWorkflow(ctx, testTenant, f.wf.ID)
	require.NoError(t, err)
	assert.Len(t, byWf, 3)

	byTask, err := f.mgr.ListByTask(ctx, testTenant, "task-1")
	require.NoError(t, err)
	assert.Len(t, byTask, 2)
}

func TestDeleteInstance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "", "")
	require.NoError(t, err)

	require.NoError(t, f.mgr.Delete(ctx, testTenant, inst.ID))

	_, err = f.mgr.Get(ctx, testTenant, inst.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	// 重复删除
	err = f.mgr.Delete(ctx, testTenant, inst.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestGetPropagatesStorageReadError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "", "")
	require.NoError(t, err)

	// 状态列表读取失败必须原样上抛，不能把实例误判成悬空
	flaky := &flakyStore{Store: f.store, failListStates: true}
	mgr := NewManager(f.store, definition.NewStore(flaky))

	_, err = mgr.Get(ctx, testTenant, inst.ID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, model.ErrInvalidState))
	assert.False(t, errors.Is(err, model.ErrNotFound))

	_, err = mgr.ListByWorkflow(ctx, testTenant, f.wf.ID)
	require.Error(t, err)
}

func TestDeleteUnbindsTaskDefaultInstance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	task := model.NewTask(testTenant, "bug", "登录页白屏", "high", "alice")
	require.NoError(t, f.store.SaveTask(ctx, task))

	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "", task.ID)
	require.NoError(t, err)
	task.WorkflowInstanceID = inst.ID
	require.NoError(t, f.store.SaveTask(ctx, task))

	// 删除默认实例后任务指针一并清空，不留悬空引用
	require.NoError(t, f.mgr.Delete(ctx, testTenant, inst.ID))

	got, err := f.store.GetTask(ctx, testTenant, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.WorkflowInstanceID)
}

func TestDeleteNonDefaultInstanceKeepsTaskPointer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	task := model.NewTask(testTenant, "bug", "登录页白屏", "high", "alice")
	require.NoError(t, f.store.SaveTask(ctx, task))

	def, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "主流程", task.ID)
	require.NoError(t, err)
	side, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "旁路流程", task.ID)
	require.NoError(t, err)
	task.WorkflowInstanceID = def.ID
	require.NoError(t, f.store.SaveTask(ctx, task))

	require.NoError(t, f.mgr.Delete(ctx, testTenant, side.ID))

	got, err := f.store.GetTask(ctx, testTenant, task.ID)
	require.NoError(t, err)
	assert.Equal(t, def.ID, got.WorkflowInstanceID)
}

func TestInstanceTenantIsolation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	inst, err := f.mgr.Create(ctx, testTenant, f.wf.ID, "", "", "")
	require.NoError(t, err)

	_, err = f.mgr.Get(ctx, "tenant-b", inst.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	list, err := f.mgr.ListByWorkflow(ctx, "tenant-b", f.wf.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
