package model

import (
	"encoding/json"
	"fmt"
)

// ApproverKind 审批人引用类型
type ApproverKind string

const (
	ApproverUser    ApproverKind = "user"     // 平台用户
	ApproverAppUser ApproverKind = "app_user" // 应用内用户
	ApproverGroup   ApproverKind = "group"    // 用户组
)

// ApproverRef 审批人引用：kind + 恰好一个主体ID
type ApproverRef struct {
	Kind ApproverKind `json:"kind"`
	ID   string       `json:"id"`
}

// Validate 校验审批人引用
func (a ApproverRef) Validate() error {
	switch a.Kind {
	case ApproverUser, ApproverAppUser, ApproverGroup:
	default:
		return fmt.Errorf("%w: 未知的审批人类型 %q", ErrValidation, a.Kind)
	}
	if a.ID == "" {
		return fmt.Errorf("%w: 审批人ID不能为空", ErrValidation)
	}
	return nil
}

// TransitionMetadata 流转元数据（显式类型化，替代开放的JSON map）
// SlaPolicyID: 经由此边进入目标状态时启动的SLA策略
// Approvers: 非空时该流转受顺序审批链门控
type TransitionMetadata struct {
	SlaPolicyID string        `json:"slaPolicyId,omitempty"`
	Approvers   []ApproverRef `json:"approvers,omitempty"`
}

// Validate 校验流转元数据
func (m TransitionMetadata) Validate() error {
	for i, a := range m.Approvers {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("approvers[%d]: %w", i, err)
		}
	}
	return nil
}

// RequiresApproval 是否需要审批门控
func (m TransitionMetadata) RequiresApproval() bool {
	return len(m.Approvers) > 0
}

// EncodeMetadata 序列化流转元数据（存储用）
func EncodeMetadata(m TransitionMetadata) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("序列化流转元数据失败: %w", err)
	}
	return string(data), nil
}

// DecodeMetadata 反序列化并校验流转元数据（存储用）
func DecodeMetadata(raw string) (TransitionMetadata, error) {
	var m TransitionMetadata
	if raw == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return m, fmt.Errorf("%w: 流转元数据不是合法JSON: %v", ErrValidation, err)
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// BreachActionKind 超期动作类型
type BreachActionKind string

const (
	BreachActionLog     BreachActionKind = "log"     // 仅记录日志
	BreachActionEmail   BreachActionKind = "email"   // 邮件通知
	BreachActionWebhook BreachActionKind = "webhook" // Webhook回调
)

// BreachAction SLA超期动作（按kind区分的显式类型化变体）
type BreachAction struct {
	Kind       BreachActionKind `json:"kind"`
	Recipients []string         `json:"recipients,omitempty"` // kind=email
	URL        string           `json:"url,omitempty"`        // kind=webhook
}

// Validate 校验超期动作
func (b BreachAction) Validate() error {
	switch b.Kind {
	case BreachActionLog:
	case BreachActionEmail:
		if len(b.Recipients) == 0 {
			return fmt.Errorf("%w: email动作必须指定recipients", ErrValidation)
		}
	case BreachActionWebhook:
		if b.URL == "" {
			return fmt.Errorf("%w: webhook动作必须指定url", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: 未知的超期动作类型 %q", ErrValidation, b.Kind)
	}
	return nil
}

// EncodeBreachAction 序列化超期动作（存储用）
func EncodeBreachAction(b BreachAction) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("序列化超期动作失败: %w", err)
	}
	return string(data), nil
}

// DecodeBreachAction 反序列化并校验超期动作（存储用）
func DecodeBreachAction(raw string) (BreachAction, error) {
	var b BreachAction
	if raw == "" {
		return BreachAction{Kind: BreachActionLog}, nil
	}
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return b, fmt.Errorf("%w: 超期动作不是合法JSON: %v", ErrValidation, err)
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	return b, nil
}
