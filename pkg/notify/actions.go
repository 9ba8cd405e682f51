package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/LENAX/tms-engine/pkg/core/events"
	"github.com/LENAX/tms-engine/pkg/core/model"
)

// Action 超期动作执行器接口（对外导出）
// 返回错误会触发订阅侧的退避重试，绝不回传到扫描路径
type Action interface {
	Kind() model.BreachActionKind
	Execute(ctx context.Context, ev events.SlaBreachEvent) error
}

// LogAction 仅记录日志的超期动作（对外导出）
type LogAction struct{}

// Kind 实现Action接口
func (a *LogAction) Kind() model.BreachActionKind { return model.BreachActionLog }

// Execute 实现Action接口
func (a *LogAction) Execute(_ context.Context, ev events.SlaBreachEvent) error {
	log.Printf("🚨 [SLA告警] 任务 %s 超期: policy=%s due=%s", ev.TaskID, ev.PolicyName, ev.DueAt.Format(time.RFC3339))
	return nil
}

// EmailAction 邮件超期动作（对外导出）
type EmailAction struct {
	smtpHost string
	smtpPort int
}

// NewEmailAction 创建邮件动作（对外导出）
func NewEmailAction(smtpHost string, smtpPort int) *EmailAction {
	if smtpPort == 0 {
		smtpPort = 25
	}
	return &EmailAction{smtpHost: smtpHost, smtpPort: smtpPort}
}

// Kind 实现Action接口
func (a *EmailAction) Kind() model.BreachActionKind { return model.BreachActionEmail }

// Execute 实现Action接口
func (a *EmailAction) Execute(_ context.Context, ev events.SlaBreachEvent) error {
	// TODO: 接入真实SMTP发送，目前与短信/邮件插件一样先落日志
	log.Printf("📧 [SLA告警] 发送邮件: to=%s 任务 %s 超期 (policy=%s)", strings.Join(ev.Action.Recipients, ","), ev.TaskID, ev.PolicyName)
	return nil
}

// WebhookAction Webhook超期动作（对外导出）
type WebhookAction struct {
	client *http.Client
}

// NewWebhookAction 创建Webhook动作（对外导出）
func NewWebhookAction(timeout time.Duration) *WebhookAction {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookAction{client: &http.Client{Timeout: timeout}}
}

// Kind 实现Action接口
func (a *WebhookAction) Kind() model.BreachActionKind { return model.BreachActionWebhook }

// Execute 实现Action接口：POST事件负载到策略指定的URL
func (a *WebhookAction) Execute(ctx context.Context, ev events.SlaBreachEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化Webhook负载失败: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ev.Action.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造Webhook请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", ev.TenantID)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("Webhook请求失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("Webhook返回 %d", resp.StatusCode)
	}
	return nil
}
