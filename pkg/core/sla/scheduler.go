package sla

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/LENAX/tms-engine/pkg/core/events"
	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage"
)

// Scheduler SLA计时器调度器（对外导出）
// 拥有SlaPolicy/SlaTimer记录；计时器只在这里变更
// Breached只由ScanAndBreach置位；停止与超期在同一行上互斥（守卫UPDATE，先提交者胜）
type Scheduler struct {
	store     storage.Store
	publisher message.Publisher
}

// NewScheduler 创建SLA调度器（对外导出）
// publisher为nil时超期事件只记录日志，不对外广播
func NewScheduler(store storage.Store, publisher message.Publisher) *Scheduler {
	return &Scheduler{store: store, publisher: publisher}
}

// CreatePolicy 创建SLA策略
func (s *Scheduler) CreatePolicy(ctx context.Context, tenantID, name string, durationSeconds int64, action model.BreachAction) (*model.SlaPolicy, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name不能为空", model.ErrValidation)
	}
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: durationSeconds必须为正", model.ErrValidation)
	}
	if err := action.Validate(); err != nil {
		return nil, err
	}
	p := model.NewSlaPolicy(tenantID, name, durationSeconds, action)
	if err := s.store.SavePolicy(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPolicy 查询SLA策略
func (s *Scheduler) GetPolicy(ctx context.Context, tenantID, id string) (*model.SlaPolicy, error) {
	p, err := s.store.GetPolicy(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: sla policy %s", model.ErrNotFound, id)
	}
	return p, nil
}

// ListPolicies 列出租户下全部SLA策略
func (s *Scheduler) ListPolicies(ctx context.Context, tenantID string) ([]*model.SlaPolicy, error) {
	return s.store.ListPolicies(ctx, tenantID)
}

// StartTimer 启动计时器
// 同一(taskID, policyID)已有活跃计时器时先隐式停止它（置stopped_at，breached不动），
// 再以 dueAt = now + 策略时长 创建新行
func (s *Scheduler) StartTimer(ctx context.Context, tenantID, taskID, policyID string) (*model.SlaTimer, error) {
	var timer *model.SlaTimer
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		t, err := s.StartTimerIn(ctx, tx, tenantID, taskID, policyID, time.Now())
		if err != nil {
			return err
		}
		timer = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return timer, nil
}

// StartTimerIn 在给定事务视图内启动计时器（执行器在提交事务内复用）
func (s *Scheduler) StartTimerIn(ctx context.Context, tx storage.Store, tenantID, taskID, policyID string, now time.Time) (*model.SlaTimer, error) {
	policy, err := tx.GetPolicy(ctx, tenantID, policyID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, fmt.Errorf("%w: sla policy %s", model.ErrNotFound, policyID)
	}

	prev, err := tx.GetActiveTimer(ctx, tenantID, taskID, policyID)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		if _, err := tx.StopTimer(ctx, tenantID, prev.ID, now); err != nil {
			return nil, err
		}
	}
	timer := model.NewSlaTimer(tenantID, taskID, policy, now)
	if err := tx.SaveTimer(ctx, timer); err != nil {
		return nil, err
	}
	return timer, nil
}

// StopTimer 停止计时器
// 已停止或已超期的计时器不再可停（守卫UPDATE影响0行即无操作）
func (s *Scheduler) StopTimer(ctx context.Context, tenantID, timerID string) (*model.SlaTimer, error) {
	t, err := s.store.GetTimer(ctx, tenantID, timerID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: sla timer %s", model.ErrNotFound, timerID)
	}
	if _, err := s.store.StopTimer(ctx, tenantID, timerID, time.Now()); err != nil {
		return nil, err
	}
	return s.store.GetTimer(ctx, tenantID, timerID)
}

// StopActiveTimersForTask 停止任务下某策略（或全部）的活跃计时器
// policyID为空时停止该任务全部活跃计时器，供执行器在离开状态时收口
func (s *Scheduler) StopActiveTimersForTask(ctx context.Context, tx storage.Store, tenantID, taskID, policyID string, at time.Time) error {
	if tx == nil {
		tx = s.store
	}
	active, err := tx.ListActiveTimersByTask(ctx, tenantID, taskID)
	if err != nil {
		return err
	}
	for _, t := range active {
		if policyID != "" && t.PolicyID != policyID {
			continue
		}
		if _, err := tx.StopTimer(ctx, tenantID, t.ID, at); err != nil {
			return err
		}
	}
	return nil
}

// ListTimersByTask 列出任务下全部计时器
func (s *Scheduler) ListTimersByTask(ctx context.Context, tenantID, taskID string) ([]*model.SlaTimer, error) {
	return s.store.ListTimersByTask(ctx, tenantID, taskID)
}

// ScanAndBreach 周期性超期扫描：唯一置位breached的路径
// 枚举 stopped_at IS NULL AND breached=false AND due_at<=now 的计时器，
// 守卫UPDATE标记超期后发布超期事件（发后不管，通知失败由订阅侧重试）
// 守卫使重复扫描天然幂等：已超期的行影响0行即跳过
func (s *Scheduler) ScanAndBreach(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDueTimers(ctx, now)
	if err != nil {
		return 0, err
	}

	breached := 0
	for _, t := range due {
		ok, err := s.store.MarkBreached(ctx, t.TenantID, t.ID, now)
		if err != nil {
			return breached, err
		}
		if !ok {
			// 并发停止或上一轮扫描已处理
			continue
		}
		breached++
		log.Printf("⏰ [SLA调度器] 计时器超期: timer=%s task=%s policy=%s due=%s", t.ID, t.TaskID, t.PolicyID, t.DueAt.Format(time.RFC3339))
		s.publishBreach(ctx, t, now)
	}
	return breached, nil
}

// publishBreach 发布超期事件；发布失败只记日志，绝不中断扫描
func (s *Scheduler) publishBreach(ctx context.Context, t *model.SlaTimer, now time.Time) {
	if s.publisher == nil {
		return
	}
	policy, err := s.store.GetPolicy(ctx, t.TenantID, t.PolicyID)
	if err != nil || policy == nil {
		log.Printf("⚠️ [SLA调度器] 读取超期策略失败: policy=%s err=%v", t.PolicyID, err)
		return
	}
	ev := events.SlaBreachEvent{
		TenantID:   t.TenantID,
		TimerID:    t.ID,
		TaskID:     t.TaskID,
		PolicyID:   policy.ID,
		PolicyName: policy.Name,
		Action:     policy.BreachAction,
		DueAt:      t.DueAt,
		BreachedAt: now,
	}
	msg, err := events.NewMessage(ev)
	if err != nil {
		log.Printf("⚠️ [SLA调度器] 构造超期事件失败: %v", err)
		return
	}
	if err := s.publisher.Publish(events.TopicSlaBreach, msg); err != nil {
		log.Printf("⚠️ [SLA调度器] 发布超期事件失败: timer=%s err=%v", t.ID, err)
	}
}
