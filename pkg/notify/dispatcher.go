package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/LENAX/tms-engine/pkg/core/events"
	"github.com/LENAX/tms-engine/pkg/core/model"
)

// RetryConfig 通知重试配置（对外导出）
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
	}
}

// Dispatcher 超期通知分发器（对外导出）
// 订阅超期事件并按动作kind分发；执行失败经退避重试，
// 完全游离于调用方请求路径之外，绝不阻塞扫描或流转
type Dispatcher struct {
	router  *message.Router
	actions map[model.BreachActionKind]Action
}

// NewDispatcher 创建分发器并挂载处理器（对外导出）
func NewDispatcher(subscriber message.Subscriber, retry RetryConfig, actions ...Action) (*Dispatcher, error) {
	logger := watermill.NewStdLogger(false, false)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("创建消息路由失败: %w", err)
	}
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      retry.MaxRetries,
		InitialInterval: retry.InitialInterval,
		MaxInterval:     retry.MaxInterval,
		Multiplier:      2,
		Logger:          logger,
	}.Middleware)

	d := &Dispatcher{
		router:  router,
		actions: make(map[model.BreachActionKind]Action),
	}
	for _, a := range actions {
		d.actions[a.Kind()] = a
	}

	router.AddNoPublisherHandler(
		"sla_breach_notifier",
		events.TopicSlaBreach,
		subscriber,
		d.handle,
	)
	return d, nil
}

// Run 启动分发循环，阻塞到ctx取消（对外导出）
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.router.Run(ctx)
}

// Close 关闭分发器（对外导出）
func (d *Dispatcher) Close() error {
	return d.router.Close()
}

// handle 单条超期事件的分发
func (d *Dispatcher) handle(msg *message.Message) error {
	var ev events.SlaBreachEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		// 负载损坏重试无意义，记日志后吞掉
		log.Printf("⚠️ [通知分发] 丢弃损坏的超期事件: %v", err)
		return nil
	}

	action, ok := d.actions[ev.Action.Kind]
	if !ok {
		log.Printf("⚠️ [通知分发] 未注册的动作类型 %q，降级为日志", ev.Action.Kind)
		action = &LogAction{}
	}
	if err := action.Execute(msg.Context(), ev); err != nil {
		log.Printf("⚠️ [通知分发] 动作执行失败（将退避重试）: kind=%s timer=%s err=%v", ev.Action.Kind, ev.TimerID, err)
		return err
	}
	return nil
}
