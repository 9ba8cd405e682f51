package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/LENAX/tms-engine/pkg/core/model"
)

// 事件主题（对外导出）
const (
	// TopicSlaBreach SLA计时器超期事件
	TopicSlaBreach = "tms.sla.breach"
	// TopicTransition 流转提交事件（读侧消费，发后不管）
	TopicTransition = "tms.workflow.transition"
)

// SlaBreachEvent SLA超期事件负载
type SlaBreachEvent struct {
	TenantID   string             `json:"tenantId"`
	TimerID    string             `json:"timerId"`
	TaskID     string             `json:"taskId"`
	PolicyID   string             `json:"policyId"`
	PolicyName string             `json:"policyName"`
	Action     model.BreachAction `json:"action"`
	DueAt      time.Time          `json:"dueAt"`
	BreachedAt time.Time          `json:"breachedAt"`
}

// TransitionEvent 流转提交事件负载
type TransitionEvent struct {
	TenantID     string    `json:"tenantId"`
	InstanceID   string    `json:"instanceId"`
	TransitionID string    `json:"transitionId,omitempty"`
	FromStateID  string    `json:"fromStateId"`
	ToStateID    string    `json:"toStateId"`
	Manual       bool      `json:"manual"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// NewMessage 将事件负载封装为watermill消息
func NewMessage(payload any) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化事件失败: %w", err)
	}
	return message.NewMessage(uuid.NewString(), data), nil
}
