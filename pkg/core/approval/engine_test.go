package approval

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

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := sqldb.Open("sqlite", dbPath)
	require.NoError(t, err, "创建存储失败")
	t.Cleanup(func() { store.Close() })
	return NewEngine(store)
}

func threeApprovers() []model.ApproverRef {
	return []model.ApproverRef{
		{Kind: model.ApproverUser, ID: "alice"},
		{Kind: model.ApproverGroup, ID: "qa-team"},
		{Kind: model.ApproverUser, ID: "carol"},
	}
}

func TestOpenChain(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	assert.Equal(t, model.ChainOpen, chain.Status)

	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// 链头pending，其余排队
	assert.Equal(t, 1, all[0].Sequence)
	assert.Equal(t, model.ApprovalPending, all[0].Status)
	assert.Equal(t, model.ApprovalQueued, all[1].Status)
	assert.Equal(t, model.ApprovalQueued, all[2].Status)
}

func TestOpenChainIdempotent(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)

	// 同一(task, transition)重复开链返回已有链，不新建记录
	again, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	assert.Equal(t, chain.ID, again.ID)

	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOpenChainEmptyApprovers(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	_, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", nil)
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestRespondOutOfSequence(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)

	// 跳过链头直接批第2级
	_, err = e.Respond(ctx, testTenant, all[1].ID, DecisionApprove, "")
	assert.True(t, errors.Is(err, model.ErrOutOfSequence))
}

func TestApproveAdvancesHead(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)

	got, err := e.Respond(ctx, testTenant, all[0].ID, DecisionApprove, "同意")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, got.Status)
	assert.Equal(t, "同意", got.ResponseComment)
	assert.NotNil(t, got.RespondedAt)

	// 第2级被激活，第3级仍排队
	all, err = e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, all[1].Status)
	assert.Equal(t, model.ApprovalQueued, all[2].Status)

	// 链尚未解决
	resolved, err := e.IsChainResolved(ctx, testTenant, "task-1", "tr-1")
	require.NoError(t, err)
	assert.False(t, resolved)
}

func TestApproveAllResolvesChain(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		all, err := e.ListByChain(ctx, testTenant, chain.ID)
		require.NoError(t, err)
		_, err = e.Respond(ctx, testTenant, all[i].ID, DecisionApprove, "")
		require.NoError(t, err)
	}

	resolved, err := e.IsChainResolved(ctx, testTenant, "task-1", "tr-1")
	require.NoError(t, err)
	assert.True(t, resolved)

	live, err := e.LiveChain(ctx, testTenant, "task-1", "tr-1")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, model.ChainResolved, live.Status)
	assert.NotNil(t, live.ResolvedAt)
}

func TestRejectCascades(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)

	// 先批第1级再拒第2级
	_, err = e.Respond(ctx, testTenant, all[0].ID, DecisionApprove, "")
	require.NoError(t, err)
	_, err = e.Respond(ctx, testTenant, all[1].ID, DecisionReject, "不行")
	require.NoError(t, err)

	// 第3级被级联拒绝，链整体rejected
	all, err = e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, all[0].Status)
	assert.Equal(t, model.ApprovalRejected, all[1].Status)
	assert.Equal(t, model.ApprovalRejected, all[2].Status)

	got, err := e.store.GetChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChainRejected, got.Status)

	// rejected链不是活链
	live, err := e.LiveChain(ctx, testTenant, "task-1", "tr-1")
	require.NoError(t, err)
	assert.Nil(t, live)

	resolved, err := e.IsChainResolved(ctx, testTenant, "task-1", "tr-1")
	require.NoError(t, err)
	assert.False(t, resolved)
}

func TestRespondAlreadyResolved(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)

	_, err = e.Respond(ctx, testTenant, all[0].ID, DecisionApprove, "")
	require.NoError(t, err)

	// 同一条记录不能再应答
	_, err = e.Respond(ctx, testTenant, all[0].ID, DecisionReject, "")
	assert.True(t, errors.Is(err, model.ErrAlreadyResolved))
}

func TestRespondMissingApproval(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	_, err := e.Respond(ctx, testTenant, "no-such-approval", DecisionApprove, "")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRejectedChainAllowsReopen(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)

	_, err = e.Respond(ctx, testTenant, all[0].ID, DecisionReject, "")
	require.NoError(t, err)

	// 链被拒后再次请求同一流转会开新链
	again, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	assert.NotEqual(t, chain.ID, again.ID)
	assert.Equal(t, model.ChainOpen, again.Status)
}

func TestApprovalTenantIsolation(t *testing.T) {
	e := setupEngine(t)
	ctx := context.Background()

	chain, err := e.OpenChain(ctx, testTenant, "task-1", "tr-1", "inst-1", threeApprovers())
	require.NoError(t, err)
	all, err := e.ListByChain(ctx, testTenant, chain.ID)
	require.NoError(t, err)

	_, err = e.Respond(ctx, "tenant-b", all[0].ID, DecisionApprove, "")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	list, err := e.ListByTask(ctx, "tenant-b", "task-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
