package model

import (
	"time"

	"github.com/google/uuid"
)

// SlaPolicy SLA策略：最大时长 + 超期动作（对外导出）
type SlaPolicy struct {
	ID              string       `json:"id" db:"id"`
	TenantID        string       `json:"-" db:"tenant_id"`
	Name            string       `json:"name" db:"name"`
	DurationSeconds int64        `json:"durationSeconds" db:"duration_seconds"`
	BreachAction    BreachAction `json:"breachAction" db:"-"`
	CreateTime      time.Time    `json:"createdAt" db:"create_time"`
}

// NewSlaPolicy 创建SlaPolicy（对外导出）
func NewSlaPolicy(tenantID, name string, durationSeconds int64, action BreachAction) *SlaPolicy {
	return &SlaPolicy{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		Name:            name,
		DurationSeconds: durationSeconds,
		BreachAction:    action,
		CreateTime:      time.Now(),
	}
}

// Duration 策略时长
func (p *SlaPolicy) Duration() time.Duration {
	return time.Duration(p.DurationSeconds) * time.Second
}

// SlaTimer 从策略实例化出的倒计时（对外导出）
// 同一(TaskID, PolicyID)至多一个活跃计时器；启动新计时器会隐式停止旧的
// Breached 只由 scanAndBreach 置位，停止与超期在同一行上互斥
type SlaTimer struct {
	ID         string     `json:"id" db:"id"`
	TenantID   string     `json:"-" db:"tenant_id"`
	TaskID     string     `json:"taskId" db:"task_id"`
	PolicyID   string     `json:"policyId" db:"policy_id"`
	StartedAt  time.Time  `json:"startedAt" db:"started_at"`
	DueAt      time.Time  `json:"dueAt" db:"due_at"`
	StoppedAt  *time.Time `json:"stoppedAt,omitempty" db:"stopped_at"`
	Breached   bool       `json:"breached" db:"breached"`
	BreachedAt *time.Time `json:"breachedAt,omitempty" db:"breached_at"`
}

// NewSlaTimer 按策略创建计时器（对外导出）
func NewSlaTimer(tenantID, taskID string, policy *SlaPolicy, now time.Time) *SlaTimer {
	return &SlaTimer{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		TaskID:    taskID,
		PolicyID:  policy.ID,
		StartedAt: now,
		DueAt:     now.Add(policy.Duration()),
	}
}

// Active 计时器是否仍在运行（未停止且未超期）
func (t *SlaTimer) Active() bool {
	return t.StoppedAt == nil && !t.Breached
}
