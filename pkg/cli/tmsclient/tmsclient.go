package tmsclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/core/model"
)

// Client TMS Engine HTTP API客户端
// 所有业务请求自动携带X-Tenant-ID
type Client struct {
	baseURL    string
	tenantID   string
	httpClient *http.Client
}

// New 创建客户端
func New(baseURL, tenantID string) *Client {
	return &Client{
		baseURL:  baseURL,
		tenantID: tenantID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ========== Workflow API ==========

// ListWorkflows 列出所有工作流
func (c *Client) ListWorkflows() (*dto.ListResponse[*model.Workflow], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.Workflow]]
	if err := c.get("/tms/workflows", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// GetWorkflow 获取工作流详情
func (c *Client) GetWorkflow(id string) (*model.Workflow, error) {
	var resp dto.APIResponse[*model.Workflow]
	if err := c.get("/tms/workflows/"+id, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return resp.Data, nil
}

// CreateWorkflow 创建工作流
func (c *Client) CreateWorkflow(name, description, definition string) (*model.Workflow, error) {
	req := dto.CreateWorkflowRequest{Name: name, Description: description, Definition: definition}
	var resp dto.APIResponse[*model.Workflow]
	if err := c.post("/tms/workflows", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return resp.Data, nil
}

// DeleteWorkflow 删除工作流
func (c *Client) DeleteWorkflow(id string) error {
	var resp dto.APIResponse[any]
	if err := c.delete("/tms/workflows/"+id, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return errors.New(resp.Message)
	}
	return nil
}

// ListStates 列出工作流下的状态
func (c *Client) ListStates(workflowID string) (*dto.ListResponse[*model.WorkflowState], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.WorkflowState]]
	if err := c.get("/tms/workflow-states?workflowId="+url.QueryEscape(workflowID), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ListTransitions 列出工作流下的流转边
func (c *Client) ListTransitions(workflowID string) (*dto.ListResponse[*model.WorkflowTransition], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.WorkflowTransition]]
	if err := c.get("/tms/workflow-transitions?workflowId="+url.QueryEscape(workflowID), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ========== Instance API ==========

// ListInstances 按workflowId或taskId列出实例
func (c *Client) ListInstances(workflowID, taskID string) (*dto.ListResponse[*model.WorkflowInstance], error) {
	params := url.Values{}
	if workflowID != "" {
		params.Set("workflowId", workflowID)
	}
	if taskID != "" {
		params.Set("taskId", taskID)
	}

	var resp dto.APIResponse[dto.ListResponse[*model.WorkflowInstance]]
	if err := c.get("/tms/workflows/instances?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// GetInstance 获取实例详情
func (c *Client) GetInstance(id string) (*model.WorkflowInstance, error) {
	var resp dto.APIResponse[*model.WorkflowInstance]
	if err := c.get("/tms/workflows/instances/"+id, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return resp.Data, nil
}

// OverrideInstance 管理员手动改实例状态
func (c *Client) OverrideInstance(id, toStateID, actor, reason string) (*dto.TransitionResponse, error) {
	req := dto.OverrideRequest{ToStateID: toStateID, Actor: actor, Reason: reason}
	var resp dto.APIResponse[dto.TransitionResponse]
	if err := c.post("/tms/workflows/instances/"+id+"/override", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ========== Task API ==========

// ListTasks 列出所有任务
func (c *Client) ListTasks() (*dto.ListResponse[*model.Task], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.Task]]
	if err := c.get("/tms/tasks", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// GetTask 获取任务详情
func (c *Client) GetTask(id string) (*model.Task, error) {
	var resp dto.APIResponse[*model.Task]
	if err := c.get("/tms/tasks/"+id, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return resp.Data, nil
}

// CreateTask 创建任务
func (c *Client) CreateTask(req dto.CreateTaskRequest) (*model.Task, error) {
	var resp dto.APIResponse[*model.Task]
	if err := c.post("/tms/tasks", req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return resp.Data, nil
}

// AssignTask 指派任务
func (c *Client) AssignTask(id, assigneeID string) (*model.Task, error) {
	var resp dto.APIResponse[*model.Task]
	if err := c.post("/tms/tasks/"+id+"/assign?assigneeId="+url.QueryEscape(assigneeID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return resp.Data, nil
}

// TransitionTask 请求任务流转
func (c *Client) TransitionTask(id, to, reason string) (*dto.TransitionResponse, error) {
	params := url.Values{}
	params.Set("to", to)
	if reason != "" {
		params.Set("reason", reason)
	}

	var resp dto.APIResponse[dto.TransitionResponse]
	if err := c.post("/tms/tasks/"+id+"/transition?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ========== SLA API ==========

// ListSlaPolicies 列出SLA策略
func (c *Client) ListSlaPolicies() (*dto.ListResponse[*model.SlaPolicy], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.SlaPolicy]]
	if err := c.get("/tms/sla-policies", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ListSlaTimers 列出任务的计时器
func (c *Client) ListSlaTimers(taskID string) (*dto.ListResponse[*model.SlaTimer], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.SlaTimer]]
	if err := c.get("/tms/sla-timers?taskId="+url.QueryEscape(taskID), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ========== Approval API ==========

// ListApprovals 列出任务的审批记录
func (c *Client) ListApprovals(taskID string) (*dto.ListResponse[*model.Approval], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.Approval]]
	if err := c.get("/tms/approvals?taskId="+url.QueryEscape(taskID), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// Approve 通过审批
func (c *Client) Approve(id, comment string) (*model.Approval, error) {
	return c.respond(id, "approve", comment)
}

// Reject 拒绝审批
func (c *Client) Reject(id, comment string) (*model.Approval, error) {
	return c.respond(id, "reject", comment)
}

func (c *Client) respond(id, decision, comment string) (*model.Approval, error) {
	req := dto.RespondApprovalRequest{Comment: comment}
	var resp dto.APIResponse[*model.Approval]
	if err := c.post("/tms/approvals/"+id+"/"+decision, req, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return resp.Data, nil
}

// ========== Audit API ==========

// ListAudit 列出实例的审计记录
func (c *Client) ListAudit(instanceID string) (*dto.ListResponse[*model.AuditEntry], error) {
	var resp dto.APIResponse[dto.ListResponse[*model.AuditEntry]]
	if err := c.get("/tms/audit?instanceId="+url.QueryEscape(instanceID), &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ========== Health API ==========

// Health 健康检查
func (c *Client) Health() (*dto.HealthResponse, error) {
	var resp dto.APIResponse[dto.HealthResponse]
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, errors.New(resp.Message)
	}
	return &resp.Data, nil
}

// ========== HTTP Methods ==========

func (c *Client) get(path string, result interface{}) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body interface{}, result interface{}) error {
	return c.do(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string, result interface{}) error {
	return c.do(http.MethodDelete, path, nil, result)
}

func (c *Client) do(method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tenantID != "" {
		req.Header.Set("X-Tenant-ID", c.tenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败: %w, body: %s", err, string(body))
	}

	return nil
}
