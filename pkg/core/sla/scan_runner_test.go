package sla

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRunnerBreachesDueTimer(t *testing.T) {
	s := setupScheduler(t)
	ctx := context.Background()
	p := logPolicy(t, s, 1)

	_, err := s.StartTimer(ctx, testTenant, "task-1", p.ID)
	require.NoError(t, err)

	r := NewScanRunner(s, time.Second)
	require.NoError(t, r.Start())

	// 1秒到期 + 扫描间隔1秒，2.5秒内必有一轮扫到
	time.Sleep(2500 * time.Millisecond)
	r.Stop()

	timers, err := s.ListTimersByTask(ctx, testTenant, "task-1")
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.True(t, timers[0].Breached)
	require.NotNil(t, timers[0].BreachedAt)
}

func TestScanRunnerStopDrainsInFlightScan(t *testing.T) {
	s := setupScheduler(t)
	ctx := context.Background()
	p := logPolicy(t, s, 1)

	_, err := s.StartTimer(ctx, testTenant, "task-1", p.ID)
	require.NoError(t, err)

	r := NewScanRunner(s, time.Second)
	require.NoError(t, r.Start())

	// Stop先排空运行中的扫描再取消context：返回后内部context必已取消
	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop阻塞未返回")
	}
	assert.Error(t, r.ctx.Err())
}
