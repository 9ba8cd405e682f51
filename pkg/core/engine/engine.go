package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/LENAX/tms-engine/pkg/core/approval"
	"github.com/LENAX/tms-engine/pkg/core/definition"
	"github.com/LENAX/tms-engine/pkg/core/executor"
	"github.com/LENAX/tms-engine/pkg/core/instance"
	"github.com/LENAX/tms-engine/pkg/core/sla"
	"github.com/LENAX/tms-engine/pkg/core/task"
	"github.com/LENAX/tms-engine/pkg/notify"
	"github.com/LENAX/tms-engine/pkg/storage"
)

// Options 引擎组装选项（对外导出）
type Options struct {
	// ScanInterval SLA超期扫描间隔，默认5秒
	ScanInterval time.Duration
	// Retry 超期通知的退避重试配置
	Retry notify.RetryConfig
}

// DefaultOptions 默认引擎选项
func DefaultOptions() Options {
	return Options{
		ScanInterval: 5 * time.Second,
		Retry:        notify.DefaultRetryConfig(),
	}
}

// Engine 工作流引擎聚合根（对外导出）
// 按依赖自底向上组装：定义存储 → 实例管理 → 审批链 → SLA调度 → 流转执行 → 任务协调，
// 外加进程内事件总线与超期通知分发
type Engine struct {
	store storage.Store

	Definitions *definition.Store
	Instances   *instance.Manager
	Approvals   *approval.Engine
	Sla         *sla.Scheduler
	Executor    *executor.Executor
	Tasks       *task.Coordinator

	pubsub     *gochannel.GoChannel
	scanRunner *sla.ScanRunner
	dispatcher *notify.Dispatcher
	cancel     context.CancelFunc
}

// NewEngine 组装引擎（对外导出）
func NewEngine(store storage.Store, opts Options) (*Engine, error) {
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = DefaultOptions().ScanInterval
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry = notify.DefaultRetryConfig()
	}

	logger := watermill.NewStdLogger(false, false)
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)

	defs := definition.NewStore(store)
	instances := instance.NewManager(store, defs)
	approvals := approval.NewEngine(store)
	slaSched := sla.NewScheduler(store, pubsub)
	exec := executor.NewExecutor(store, defs, instances, approvals, slaSched, pubsub)
	tasks := task.NewCoordinator(store, defs, instances, exec)

	dispatcher, err := notify.NewDispatcher(pubsub, opts.Retry,
		&notify.LogAction{},
		notify.NewEmailAction("", 0),
		notify.NewWebhookAction(0),
	)
	if err != nil {
		return nil, fmt.Errorf("创建通知分发器失败: %w", err)
	}

	return &Engine{
		store:       store,
		Definitions: defs,
		Instances:   instances,
		Approvals:   approvals,
		Sla:         slaSched,
		Executor:    exec,
		Tasks:       tasks,
		pubsub:      pubsub,
		scanRunner:  sla.NewScanRunner(slaSched, opts.ScanInterval),
		dispatcher:  dispatcher,
	}, nil
}

// Start 启动后台组件（对外导出）
func (e *Engine) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	go func() {
		if err := e.dispatcher.Run(runCtx); err != nil {
			log.Printf("❌ [引擎] 通知分发器退出: %v", err)
		}
	}()
	if err := e.scanRunner.Start(); err != nil {
		cancel()
		return fmt.Errorf("启动SLA扫描失败: %w", err)
	}

	log.Println("🚀 [引擎] 已启动")
	return nil
}

// Stop 优雅停止：先排空SLA扫描，再关闭分发器与事件总线（对外导出）
func (e *Engine) Stop() {
	e.scanRunner.Stop()
	if e.cancel != nil {
		e.cancel()
	}
	if err := e.dispatcher.Close(); err != nil {
		log.Printf("⚠️ [引擎] 关闭通知分发器失败: %v", err)
	}
	if err := e.pubsub.Close(); err != nil {
		log.Printf("⚠️ [引擎] 关闭事件总线失败: %v", err)
	}
	log.Println("✅ [引擎] 已停止")
}

// Store 底层存储（对外导出，供健康检查等使用）
func (e *Engine) Store() storage.Store { return e.store }
