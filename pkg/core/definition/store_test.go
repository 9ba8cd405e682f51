package definition

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage/sqldb"
)

const testTenant = "tenant-a"

// setupStore 创建临时sqlite存储与定义Store
func setupStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqldb.Open("sqlite", dbPath)
	require.NoError(t, err, "创建存储失败")
	t.Cleanup(func() { store.Close() })
	return NewStore(store)
}

// buildWorkflow 建一个 todo → doing → done 的三状态工作流
func buildWorkflow(t *testing.T, s *Store) (*model.Workflow, map[string]*model.WorkflowState) {
	t.Helper()
	ctx := context.Background()

	wf, err := s.CreateWorkflow(ctx, testTenant, "issue-flow", "缺陷处理流程", "")
	require.NoError(t, err)

	states := make(map[string]*model.WorkflowState)
	for _, key := range []string{"todo", "doing", "done"} {
		st, err := s.CreateState(ctx, testTenant, wf.ID, key, key)
		require.NoError(t, err)
		states[key] = st
	}

	_, err = s.CreateTransition(ctx, testTenant, wf.ID, "start", states["todo"].ID, states["doing"].ID, model.TransitionMetadata{})
	require.NoError(t, err)
	_, err = s.CreateTransition(ctx, testTenant, wf.ID, "finish", states["doing"].ID, states["done"].ID, model.TransitionMetadata{})
	require.NoError(t, err)

	return wf, states
}

func TestCreateWorkflow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	wf, err := s.CreateWorkflow(ctx, testTenant, "flow", "描述", "")
	require.NoError(t, err)
	assert.NotEmpty(t, wf.ID)

	got, err := s.GetWorkflow(ctx, testTenant, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "flow", got.Name)

	// name为空拒绝
	_, err = s.CreateWorkflow(ctx, testTenant, "", "", "")
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestStateKeyUniquePerWorkflow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, _ := buildWorkflow(t, s)

	// 同工作流内key重复被拒绝
	_, err := s.CreateState(ctx, testTenant, wf.ID, "todo", "重复")
	assert.True(t, errors.Is(err, model.ErrValidation))

	// 另一个工作流可以用相同key
	wf2, err := s.CreateWorkflow(ctx, testTenant, "another", "", "")
	require.NoError(t, err)
	_, err = s.CreateState(ctx, testTenant, wf2.ID, "todo", "待办")
	assert.NoError(t, err)
}

func TestTransitionCrossWorkflowRejected(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, states := buildWorkflow(t, s)

	wf2, err := s.CreateWorkflow(ctx, testTenant, "other", "", "")
	require.NoError(t, err)
	foreign, err := s.CreateState(ctx, testTenant, wf2.ID, "open", "open")
	require.NoError(t, err)

	// 终点属于别的工作流
	_, err = s.CreateTransition(ctx, testTenant, wf.ID, "bad", states["todo"].ID, foreign.ID, model.TransitionMetadata{})
	assert.True(t, errors.Is(err, model.ErrInvalidReference))
}

func TestTransitionMetadataValidation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, states := buildWorkflow(t, s)

	// 引用不存在的SLA策略
	meta := model.TransitionMetadata{SlaPolicyID: "no-such-policy"}
	_, err := s.CreateTransition(ctx, testTenant, wf.ID, "x", states["todo"].ID, states["done"].ID, meta)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	// 非法审批人kind
	meta = model.TransitionMetadata{
		Approvers: []model.ApproverRef{{Kind: "robot", ID: "r2d2"}},
	}
	_, err = s.CreateTransition(ctx, testTenant, wf.ID, "y", states["todo"].ID, states["done"].ID, meta)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestTransitionMetadataRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, states := buildWorkflow(t, s)

	meta := model.TransitionMetadata{
		Approvers: []model.ApproverRef{
			{Kind: model.ApproverUser, ID: "alice"},
			{Kind: model.ApproverGroup, ID: "qa-team"},
		},
	}
	tr, err := s.CreateTransition(ctx, testTenant, wf.ID, "review", states["doing"].ID, states["todo"].ID, meta)
	require.NoError(t, err)

	got, err := s.GetTransition(ctx, testTenant, tr.ID)
	require.NoError(t, err)
	require.Len(t, got.Metadata.Approvers, 2)
	assert.Equal(t, "alice", got.Metadata.Approvers[0].ID)
	assert.True(t, got.Metadata.RequiresApproval())
}

func TestDeleteStateCascadesTransitions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, states := buildWorkflow(t, s)

	// doing是两条边的端点，删除后两条边都应消失
	require.NoError(t, s.DeleteState(ctx, testTenant, states["doing"].ID))

	transitions, err := s.ListTransitions(ctx, testTenant, wf.ID)
	require.NoError(t, err)
	assert.Empty(t, transitions)

	_, err = s.GetState(ctx, testTenant, states["doing"].ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDeleteWorkflowCascades(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, states := buildWorkflow(t, s)

	require.NoError(t, s.DeleteWorkflow(ctx, testTenant, wf.ID))

	_, err := s.GetWorkflow(ctx, testTenant, wf.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	_, err = s.GetState(ctx, testTenant, states["todo"].ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestEntryStateInference(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, states := buildWorkflow(t, s)

	// todo 入度为0，是唯一入口
	entry, err := s.EntryState(ctx, testTenant, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, states["todo"].ID, entry.ID)
}

func TestEntryStateSelfLoopIgnored(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, states := buildWorkflow(t, s)

	// 自环不增加入度：todo→todo 后 todo 仍是入口
	_, err := s.CreateTransition(ctx, testTenant, wf.ID, "loop", states["todo"].ID, states["todo"].ID, model.TransitionMetadata{})
	require.NoError(t, err)

	entry, err := s.EntryState(ctx, testTenant, wf.ID)
	require.NoError(t, err)
	assert.Equal(t, states["todo"].ID, entry.ID)
}

func TestEntryStateAmbiguous(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, _ := buildWorkflow(t, s)

	// 新增一个入度为0的孤立状态 → 两个候选入口
	_, err := s.CreateState(ctx, testTenant, wf.ID, "blocked", "blocked")
	require.NoError(t, err)

	_, err = s.EntryState(ctx, testTenant, wf.ID)
	assert.True(t, errors.Is(err, model.ErrAmbiguousEntryState))

	// 全部状态形成环（无入度0状态）同样判模糊
	wf2, err := s.CreateWorkflow(ctx, testTenant, "cyclic", "", "")
	require.NoError(t, err)
	a, err := s.CreateState(ctx, testTenant, wf2.ID, "a", "a")
	require.NoError(t, err)
	b, err := s.CreateState(ctx, testTenant, wf2.ID, "b", "b")
	require.NoError(t, err)
	_, err = s.CreateTransition(ctx, testTenant, wf2.ID, "ab", a.ID, b.ID, model.TransitionMetadata{})
	require.NoError(t, err)
	_, err = s.CreateTransition(ctx, testTenant, wf2.ID, "ba", b.ID, a.ID, model.TransitionMetadata{})
	require.NoError(t, err)

	_, err = s.EntryState(ctx, testTenant, wf2.ID)
	assert.True(t, errors.Is(err, model.ErrAmbiguousEntryState))
}

func TestTenantIsolation(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	wf, _ := buildWorkflow(t, s)

	// 另一个租户读不到
	_, err := s.GetWorkflow(ctx, "tenant-b", wf.ID)
	assert.True(t, errors.Is(err, model.ErrNotFound))

	list, err := s.ListWorkflows(ctx, "tenant-b")
	require.NoError(t, err)
	assert.Empty(t, list)
}
