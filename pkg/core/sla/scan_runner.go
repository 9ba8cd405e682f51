package sla

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ScanRunner 超期扫描的定时驱动器（对外导出）
// 引擎内唯一的时间驱动组件：按固定间隔触发ScanAndBreach，
// 停止时等待进行中的扫描完成（排空）再退出
type ScanRunner struct {
	scheduler *Scheduler
	cron      *cron.Cron
	spec      string
	mu        sync.Mutex // 同一时刻只允许一轮扫描
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScanRunner 创建扫描驱动器（对外导出）
// interval向上取整到秒，最小1秒；cron表达式使用秒级精度
func NewScanRunner(scheduler *Scheduler, interval time.Duration) *ScanRunner {
	secs := int(interval / time.Second)
	if secs < 1 {
		secs = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ScanRunner{
		scheduler: scheduler,
		cron:      cron.New(cron.WithSeconds()),
		spec:      cronSpecEvery(secs),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func cronSpecEvery(secs int) string {
	return "@every " + (time.Duration(secs) * time.Second).String()
}

// Start 启动周期扫描（对外导出）
func (r *ScanRunner) Start() error {
	if _, err := r.cron.AddFunc(r.spec, r.runOnce); err != nil {
		return err
	}
	r.cron.Start()
	log.Printf("✅ [SLA扫描] 已启动，间隔 %s", r.spec)
	return nil
}

// Stop 停止周期扫描，排空进行中的扫描后返回（对外导出）
func (r *ScanRunner) Stop() {
	// cron.Stop返回的context在所有运行中任务结束后Done；
	// 先排空再取消，进行中的那轮扫描完整跑完而不是被中途打断
	<-r.cron.Stop().Done()
	r.cancel()
	log.Println("✅ [SLA扫描] 已停止")
}

// runOnce 单轮扫描；上一轮未结束时跳过本轮
func (r *ScanRunner) runOnce() {
	if !r.mu.TryLock() {
		return
	}
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return
	}
	n, err := r.scheduler.ScanAndBreach(r.ctx, time.Now())
	if err != nil {
		log.Printf("❌ [SLA扫描] 扫描失败: %v", err)
		return
	}
	if n > 0 {
		log.Printf("⏰ [SLA扫描] 本轮标记 %d 个超期计时器", n)
	}
}
