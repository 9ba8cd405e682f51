package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/tms-engine/pkg/core/model"
	"github.com/LENAX/tms-engine/pkg/storage"
	"github.com/LENAX/tms-engine/pkg/storage/dao"
)

// Store storage.Store的sqlx实现（对外导出）
// ext 在事务外绑定*sqlx.DB，事务内绑定*sqlx.Tx，所有查询写法一致
type Store struct {
	db      *sqlx.DB // 事务内视图为nil
	ext     sqlx.ExtContext
	dialect storage.Dialect
}

// New 创建Store并初始化表结构（对外导出）
func New(db *sqlx.DB, dialect storage.Dialect) (*Store, error) {
	if err := initSchema(db, dialect); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return &Store{db: db, ext: db, dialect: dialect}, nil
}

// DB 获取底层数据库连接（对外导出）
func (s *Store) DB() *sqlx.DB { return s.db }

// SetPool 配置连接池参数（对外导出）
func (s *Store) SetPool(maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if s.db == nil {
		return
	}
	s.db.SetMaxOpenConns(maxOpen)
	s.db.SetMaxIdleConns(maxIdle)
	s.db.SetConnMaxLifetime(maxLifetime)
	s.db.SetConnMaxIdleTime(maxIdleTime)
}

// Close 关闭数据库连接（对外导出）
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InTx 在单个事务内执行回调；嵌套调用复用外层事务
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Store{ext: tx, dialect: s.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// rebind "?"占位符转换为当前方言格式
func (s *Store) rebind(query string) string {
	return s.ext.Rebind(query)
}

// ========== Workflow定义 ==========

// SaveWorkflow 插入或更新Workflow定义
func (s *Store) SaveWorkflow(ctx context.Context, wf *model.Workflow) error {
	existing, err := s.GetWorkflow(ctx, wf.TenantID, wf.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		query := s.rebind(`INSERT INTO workflow_definition (id, tenant_id, name, description, definition, create_time)
			VALUES (?, ?, ?, ?, ?, ?)`)
		_, err = s.ext.ExecContext(ctx, query, wf.ID, wf.TenantID, wf.Name, wf.Description, wf.Definition, wf.CreateTime)
	} else {
		query := s.rebind(`UPDATE workflow_definition SET name = ?, description = ?, definition = ?
			WHERE id = ? AND tenant_id = ?`)
		_, err = s.ext.ExecContext(ctx, query, wf.Name, wf.Description, wf.Definition, wf.ID, wf.TenantID)
	}
	if err != nil {
		return fmt.Errorf("保存Workflow失败: %w", err)
	}
	return nil
}

// GetWorkflow 查询Workflow定义，不存在返回(nil, nil)
func (s *Store) GetWorkflow(ctx context.Context, tenantID, id string) (*model.Workflow, error) {
	var wf model.Workflow
	query := s.rebind(`SELECT * FROM workflow_definition WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &wf, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Workflow失败: %w", err)
	}
	return &wf, nil
}

// ListWorkflows 列出租户下全部Workflow定义
func (s *Store) ListWorkflows(ctx context.Context, tenantID string) ([]*model.Workflow, error) {
	var out []*model.Workflow
	query := s.rebind(`SELECT * FROM workflow_definition WHERE tenant_id = ? ORDER BY create_time`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID); err != nil {
		return nil, fmt.Errorf("查询Workflow列表失败: %w", err)
	}
	return out, nil
}

// DeleteWorkflow 删除Workflow定义
func (s *Store) DeleteWorkflow(ctx context.Context, tenantID, id string) error {
	query := s.rebind(`DELETE FROM workflow_definition WHERE id = ? AND tenant_id = ?`)
	if _, err := s.ext.ExecContext(ctx, query, id, tenantID); err != nil {
		return fmt.Errorf("删除Workflow失败: %w", err)
	}
	return nil
}

// ========== WorkflowState ==========

// SaveState 插入或更新状态节点
func (s *Store) SaveState(ctx context.Context, st *model.WorkflowState) error {
	existing, err := s.GetState(ctx, st.TenantID, st.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		query := s.rebind(`INSERT INTO workflow_state (id, tenant_id, workflow_id, state_key, name)
			VALUES (?, ?, ?, ?, ?)`)
		_, err = s.ext.ExecContext(ctx, query, st.ID, st.TenantID, st.WorkflowID, st.Key, st.Name)
	} else {
		query := s.rebind(`UPDATE workflow_state SET state_key = ?, name = ? WHERE id = ? AND tenant_id = ?`)
		_, err = s.ext.ExecContext(ctx, query, st.Key, st.Name, st.ID, st.TenantID)
	}
	if err != nil {
		return fmt.Errorf("保存WorkflowState失败: %w", err)
	}
	return nil
}

// GetState 查询状态节点，不存在返回(nil, nil)
func (s *Store) GetState(ctx context.Context, tenantID, id string) (*model.WorkflowState, error) {
	var st model.WorkflowState
	query := s.rebind(`SELECT * FROM workflow_state WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &st, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询WorkflowState失败: %w", err)
	}
	return &st, nil
}

// GetStateByKey 按(workflowID, key)查询状态节点
func (s *Store) GetStateByKey(ctx context.Context, tenantID, workflowID, key string) (*model.WorkflowState, error) {
	var st model.WorkflowState
	query := s.rebind(`SELECT * FROM workflow_state WHERE tenant_id = ? AND workflow_id = ? AND state_key = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &st, query, tenantID, workflowID, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询WorkflowState失败: %w", err)
	}
	return &st, nil
}

// ListStates 列出Workflow下全部状态节点
func (s *Store) ListStates(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowState, error) {
	var out []*model.WorkflowState
	query := s.rebind(`SELECT * FROM workflow_state WHERE tenant_id = ? AND workflow_id = ? ORDER BY state_key`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, workflowID); err != nil {
		return nil, fmt.Errorf("查询WorkflowState列表失败: %w", err)
	}
	return out, nil
}

// DeleteState 删除状态节点（级联删除流转由上层显式执行）
func (s *Store) DeleteState(ctx context.Context, tenantID, id string) error {
	query := s.rebind(`DELETE FROM workflow_state WHERE id = ? AND tenant_id = ?`)
	if _, err := s.ext.ExecContext(ctx, query, id, tenantID); err != nil {
		return fmt.Errorf("删除WorkflowState失败: %w", err)
	}
	return nil
}

// ========== WorkflowTransition ==========

func transitionFromDAO(d *dao.TransitionDAO) (*model.WorkflowTransition, error) {
	meta, err := model.DecodeMetadata(d.Metadata)
	if err != nil {
		return nil, err
	}
	return &model.WorkflowTransition{
		ID:          d.ID,
		TenantID:    d.TenantID,
		WorkflowID:  d.WorkflowID,
		Name:        d.Name,
		FromStateID: d.FromStateID,
		ToStateID:   d.ToStateID,
		Metadata:    meta,
	}, nil
}

// SaveTransition 插入或更新流转边
func (s *Store) SaveTransition(ctx context.Context, tr *model.WorkflowTransition) error {
	meta, err := model.EncodeMetadata(tr.Metadata)
	if err != nil {
		return err
	}
	existing, err := s.GetTransition(ctx, tr.TenantID, tr.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		query := s.rebind(`INSERT INTO workflow_transition (id, tenant_id, workflow_id, name, from_state_id, to_state_id, metadata)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		_, err = s.ext.ExecContext(ctx, query, tr.ID, tr.TenantID, tr.WorkflowID, tr.Name, tr.FromStateID, tr.ToStateID, meta)
	} else {
		query := s.rebind(`UPDATE workflow_transition SET name = ?, from_state_id = ?, to_state_id = ?, metadata = ?
			WHERE id = ? AND tenant_id = ?`)
		_, err = s.ext.ExecContext(ctx, query, tr.Name, tr.FromStateID, tr.ToStateID, meta, tr.ID, tr.TenantID)
	}
	if err != nil {
		return fmt.Errorf("保存WorkflowTransition失败: %w", err)
	}
	return nil
}

// GetTransition 查询流转边，不存在返回(nil, nil)
func (s *Store) GetTransition(ctx context.Context, tenantID, id string) (*model.WorkflowTransition, error) {
	var d dao.TransitionDAO
	query := s.rebind(`SELECT * FROM workflow_transition WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &d, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询WorkflowTransition失败: %w", err)
	}
	return transitionFromDAO(&d)
}

// ListTransitions 列出Workflow下全部流转边
func (s *Store) ListTransitions(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowTransition, error) {
	var rows []*dao.TransitionDAO
	query := s.rebind(`SELECT * FROM workflow_transition WHERE tenant_id = ? AND workflow_id = ? ORDER BY name`)
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query, tenantID, workflowID); err != nil {
		return nil, fmt.Errorf("查询WorkflowTransition列表失败: %w", err)
	}
	out := make([]*model.WorkflowTransition, 0, len(rows))
	for _, d := range rows {
		tr, err := transitionFromDAO(d)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// DeleteTransition 删除流转边
func (s *Store) DeleteTransition(ctx context.Context, tenantID, id string) error {
	query := s.rebind(`DELETE FROM workflow_transition WHERE id = ? AND tenant_id = ?`)
	if _, err := s.ext.ExecContext(ctx, query, id, tenantID); err != nil {
		return fmt.Errorf("删除WorkflowTransition失败: %w", err)
	}
	return nil
}

// DeleteTransitionsTouchingState 删除以该状态为起点或终点的所有流转
func (s *Store) DeleteTransitionsTouchingState(ctx context.Context, tenantID, workflowID, stateID string) (int64, error) {
	query := s.rebind(`DELETE FROM workflow_transition
		WHERE tenant_id = ? AND workflow_id = ? AND (from_state_id = ? OR to_state_id = ?)`)
	res, err := s.ext.ExecContext(ctx, query, tenantID, workflowID, stateID, stateID)
	if err != nil {
		return 0, fmt.Errorf("级联删除WorkflowTransition失败: %w", err)
	}
	return res.RowsAffected()
}

// ========== WorkflowInstance ==========

// SaveInstance 插入或更新实例
func (s *Store) SaveInstance(ctx context.Context, inst *model.WorkflowInstance) error {
	existing, err := s.GetInstance(ctx, inst.TenantID, inst.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		query := s.rebind(`INSERT INTO workflow_instance (id, tenant_id, workflow_id, current_state_id, name, task_id, version, create_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err = s.ext.ExecContext(ctx, query, inst.ID, inst.TenantID, inst.WorkflowID, inst.CurrentStateID, inst.Name, inst.TaskID, inst.Version, inst.CreateTime)
	} else {
		query := s.rebind(`UPDATE workflow_instance SET current_state_id = ?, name = ?, task_id = ?, version = ?
			WHERE id = ? AND tenant_id = ?`)
		_, err = s.ext.ExecContext(ctx, query, inst.CurrentStateID, inst.Name, inst.TaskID, inst.Version, inst.ID, inst.TenantID)
	}
	if err != nil {
		return fmt.Errorf("保存WorkflowInstance失败: %w", err)
	}
	return nil
}

// GetInstance 查询实例，不存在返回(nil, nil)
func (s *Store) GetInstance(ctx context.Context, tenantID, id string) (*model.WorkflowInstance, error) {
	var inst model.WorkflowInstance
	query := s.rebind(`SELECT * FROM workflow_instance WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &inst, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询WorkflowInstance失败: %w", err)
	}
	return &inst, nil
}

// ListInstancesByWorkflow 列出Workflow下全部实例
func (s *Store) ListInstancesByWorkflow(ctx context.Context, tenantID, workflowID string) ([]*model.WorkflowInstance, error) {
	var out []*model.WorkflowInstance
	query := s.rebind(`SELECT * FROM workflow_instance WHERE tenant_id = ? AND workflow_id = ? ORDER BY create_time`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, workflowID); err != nil {
		return nil, fmt.Errorf("查询WorkflowInstance列表失败: %w", err)
	}
	return out, nil
}

// ListInstancesByTask 列出任务下全部实例
func (s *Store) ListInstancesByTask(ctx context.Context, tenantID, taskID string) ([]*model.WorkflowInstance, error) {
	var out []*model.WorkflowInstance
	query := s.rebind(`SELECT * FROM workflow_instance WHERE tenant_id = ? AND task_id = ? ORDER BY create_time`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, taskID); err != nil {
		return nil, fmt.Errorf("查询WorkflowInstance列表失败: %w", err)
	}
	return out, nil
}

// DeleteInstance 删除实例
func (s *Store) DeleteInstance(ctx context.Context, tenantID, id string) error {
	query := s.rebind(`DELETE FROM workflow_instance WHERE id = ? AND tenant_id = ?`)
	if _, err := s.ext.ExecContext(ctx, query, id, tenantID); err != nil {
		return fmt.Errorf("删除WorkflowInstance失败: %w", err)
	}
	return nil
}

// CASInstanceState 版本CAS写入当前状态
// 版本不匹配时影响0行，返回false，由上层映射为Conflict
func (s *Store) CASInstanceState(ctx context.Context, tenantID, id, toStateID string, expectedVersion int64) (bool, error) {
	query := s.rebind(`UPDATE workflow_instance SET current_state_id = ?, version = version + 1
		WHERE id = ? AND tenant_id = ? AND version = ?`)
	res, err := s.ext.ExecContext(ctx, query, toStateID, id, tenantID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("CAS写入实例状态失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ========== Task ==========

// SaveTask 插入或更新任务
func (s *Store) SaveTask(ctx context.Context, t *model.Task) error {
	existing, err := s.GetTask(ctx, t.TenantID, t.ID)
	if err != nil {
		return err
	}
	t.UpdateTime = time.Now()
	if existing == nil {
		query := s.rebind(`INSERT INTO task (id, tenant_id, type_key, title, status, priority, reporter_id, assignee_id, sla_policy_id, workflow_instance_id, create_time, update_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		_, err = s.ext.ExecContext(ctx, query, t.ID, t.TenantID, t.TypeKey, t.Title, t.Status, t.Priority, t.ReporterID, t.AssigneeID, t.SlaPolicyID, t.WorkflowInstanceID, t.CreateTime, t.UpdateTime)
	} else {
		query := s.rebind(`UPDATE task SET type_key = ?, title = ?, status = ?, priority = ?, reporter_id = ?, assignee_id = ?, sla_policy_id = ?, workflow_instance_id = ?, update_time = ?
			WHERE id = ? AND tenant_id = ?`)
		_, err = s.ext.ExecContext(ctx, query, t.TypeKey, t.Title, t.Status, t.Priority, t.ReporterID, t.AssigneeID, t.SlaPolicyID, t.WorkflowInstanceID, t.UpdateTime, t.ID, t.TenantID)
	}
	if err != nil {
		return fmt.Errorf("保存Task失败: %w", err)
	}
	return nil
}

// GetTask 查询任务，不存在返回(nil, nil)
func (s *Store) GetTask(ctx context.Context, tenantID, id string) (*model.Task, error) {
	var t model.Task
	query := s.rebind(`SELECT * FROM task WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &t, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Task失败: %w", err)
	}
	return &t, nil
}

// ListTasks 列出租户下全部任务
func (s *Store) ListTasks(ctx context.Context, tenantID string) ([]*model.Task, error) {
	var out []*model.Task
	query := s.rebind(`SELECT * FROM task WHERE tenant_id = ? ORDER BY create_time`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID); err != nil {
		return nil, fmt.Errorf("查询Task列表失败: %w", err)
	}
	return out, nil
}

// ========== SlaPolicy / SlaTimer ==========

func policyFromDAO(d *dao.SlaPolicyDAO) (*model.SlaPolicy, error) {
	action, err := model.DecodeBreachAction(d.BreachAction)
	if err != nil {
		return nil, err
	}
	return &model.SlaPolicy{
		ID:              d.ID,
		TenantID:        d.TenantID,
		Name:            d.Name,
		DurationSeconds: d.DurationSeconds,
		BreachAction:    action,
		CreateTime:      d.CreateTime,
	}, nil
}

// SavePolicy 插入SLA策略（策略创建后不可变）
func (s *Store) SavePolicy(ctx context.Context, p *model.SlaPolicy) error {
	action, err := model.EncodeBreachAction(p.BreachAction)
	if err != nil {
		return err
	}
	query := s.rebind(`INSERT INTO sla_policy (id, tenant_id, name, duration_seconds, breach_action, create_time)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := s.ext.ExecContext(ctx, query, p.ID, p.TenantID, p.Name, p.DurationSeconds, action, p.CreateTime); err != nil {
		return fmt.Errorf("保存SlaPolicy失败: %w", err)
	}
	return nil
}

// GetPolicy 查询SLA策略，不存在返回(nil, nil)
func (s *Store) GetPolicy(ctx context.Context, tenantID, id string) (*model.SlaPolicy, error) {
	var d dao.SlaPolicyDAO
	query := s.rebind(`SELECT * FROM sla_policy WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &d, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询SlaPolicy失败: %w", err)
	}
	return policyFromDAO(&d)
}

// ListPolicies 列出租户下全部SLA策略
func (s *Store) ListPolicies(ctx context.Context, tenantID string) ([]*model.SlaPolicy, error) {
	var rows []*dao.SlaPolicyDAO
	query := s.rebind(`SELECT * FROM sla_policy WHERE tenant_id = ? ORDER BY create_time`)
	if err := sqlx.SelectContext(ctx, s.ext, &rows, query, tenantID); err != nil {
		return nil, fmt.Errorf("查询SlaPolicy列表失败: %w", err)
	}
	out := make([]*model.SlaPolicy, 0, len(rows))
	for _, d := range rows {
		p, err := policyFromDAO(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SaveTimer 插入计时器
func (s *Store) SaveTimer(ctx context.Context, t *model.SlaTimer) error {
	query := s.rebind(`INSERT INTO sla_timer (id, tenant_id, task_id, policy_id, started_at, due_at, stopped_at, breached, breached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.ext.ExecContext(ctx, query, t.ID, t.TenantID, t.TaskID, t.PolicyID, t.StartedAt, t.DueAt, t.StoppedAt, t.Breached, t.BreachedAt); err != nil {
		return fmt.Errorf("保存SlaTimer失败: %w", err)
	}
	return nil
}

// GetTimer 查询计时器，不存在返回(nil, nil)
func (s *Store) GetTimer(ctx context.Context, tenantID, id string) (*model.SlaTimer, error) {
	var t model.SlaTimer
	query := s.rebind(`SELECT * FROM sla_timer WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &t, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询SlaTimer失败: %w", err)
	}
	return &t, nil
}

// ListTimersByTask 列出任务下全部计时器
func (s *Store) ListTimersByTask(ctx context.Context, tenantID, taskID string) ([]*model.SlaTimer, error) {
	var out []*model.SlaTimer
	query := s.rebind(`SELECT * FROM sla_timer WHERE tenant_id = ? AND task_id = ? ORDER BY started_at`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, taskID); err != nil {
		return nil, fmt.Errorf("查询SlaTimer列表失败: %w", err)
	}
	return out, nil
}

// GetActiveTimer 查询(taskID, policyID)下的活跃计时器
func (s *Store) GetActiveTimer(ctx context.Context, tenantID, taskID, policyID string) (*model.SlaTimer, error) {
	var t model.SlaTimer
	query := s.rebind(`SELECT * FROM sla_timer
		WHERE tenant_id = ? AND task_id = ? AND policy_id = ? AND stopped_at IS NULL AND breached = FALSE`)
	if err := sqlx.GetContext(ctx, s.ext, &t, query, tenantID, taskID, policyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询活跃SlaTimer失败: %w", err)
	}
	return &t, nil
}

// ListActiveTimersByTask 列出任务下全部活跃计时器
func (s *Store) ListActiveTimersByTask(ctx context.Context, tenantID, taskID string) ([]*model.SlaTimer, error) {
	var out []*model.SlaTimer
	query := s.rebind(`SELECT * FROM sla_timer
		WHERE tenant_id = ? AND task_id = ? AND stopped_at IS NULL AND breached = FALSE`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, taskID); err != nil {
		return nil, fmt.Errorf("查询活跃SlaTimer列表失败: %w", err)
	}
	return out, nil
}

// StopTimer 停止计时器；与超期标记在同一行互斥，先提交者胜
func (s *Store) StopTimer(ctx context.Context, tenantID, id string, at time.Time) (bool, error) {
	query := s.rebind(`UPDATE sla_timer SET stopped_at = ?
		WHERE id = ? AND tenant_id = ? AND stopped_at IS NULL AND breached = FALSE`)
	res, err := s.ext.ExecContext(ctx, query, at, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("停止SlaTimer失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListDueTimers 枚举全部租户的到期活跃计时器（后台扫描专用）
func (s *Store) ListDueTimers(ctx context.Context, now time.Time) ([]*model.SlaTimer, error) {
	var out []*model.SlaTimer
	query := s.rebind(`SELECT * FROM sla_timer
		WHERE stopped_at IS NULL AND breached = FALSE AND due_at <= ? ORDER BY due_at`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, now); err != nil {
		return nil, fmt.Errorf("查询到期SlaTimer失败: %w", err)
	}
	return out, nil
}

// MarkBreached 标记超期；受与StopTimer相同的守卫，天然幂等
func (s *Store) MarkBreached(ctx context.Context, tenantID, id string, at time.Time) (bool, error) {
	query := s.rebind(`UPDATE sla_timer SET breached = TRUE, breached_at = ?
		WHERE id = ? AND tenant_id = ? AND stopped_at IS NULL AND breached = FALSE`)
	res, err := s.ext.ExecContext(ctx, query, at, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("标记SlaTimer超期失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ========== ApprovalChain / Approval ==========

// SaveChain 插入审批链
func (s *Store) SaveChain(ctx context.Context, c *model.ApprovalChain) error {
	query := s.rebind(`INSERT INTO approval_chain (id, tenant_id, task_id, transition_id, instance_id, status, create_time, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.ext.ExecContext(ctx, query, c.ID, c.TenantID, c.TaskID, c.TransitionID, c.InstanceID, c.Status, c.CreateTime, c.ResolvedAt); err != nil {
		return fmt.Errorf("保存ApprovalChain失败: %w", err)
	}
	return nil
}

// GetChain 查询审批链，不存在返回(nil, nil)
func (s *Store) GetChain(ctx context.Context, tenantID, id string) (*model.ApprovalChain, error) {
	var c model.ApprovalChain
	query := s.rebind(`SELECT * FROM approval_chain WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &c, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询ApprovalChain失败: %w", err)
	}
	return &c, nil
}

// GetLiveChain 查询(taskID, transitionID)下最近一条open或resolved的链
// 被拒绝或已消费的链视为终结，不再参与门控
func (s *Store) GetLiveChain(ctx context.Context, tenantID, taskID, transitionID string) (*model.ApprovalChain, error) {
	var c model.ApprovalChain
	query := s.rebind(`SELECT * FROM approval_chain
		WHERE tenant_id = ? AND task_id = ? AND transition_id = ? AND status IN ('open', 'resolved')
		ORDER BY create_time DESC LIMIT 1`)
	if err := sqlx.GetContext(ctx, s.ext, &c, query, tenantID, taskID, transitionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询ApprovalChain失败: %w", err)
	}
	return &c, nil
}

// UpdateChainStatus 受from状态守卫的链状态迁移
func (s *Store) UpdateChainStatus(ctx context.Context, tenantID, id string, from, to model.ChainStatus, at time.Time) (bool, error) {
	query := s.rebind(`UPDATE approval_chain SET status = ?, resolved_at = ? WHERE id = ? AND tenant_id = ? AND status = ?`)
	res, err := s.ext.ExecContext(ctx, query, to, at, id, tenantID, from)
	if err != nil {
		return false, fmt.Errorf("更新ApprovalChain状态失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SaveApproval 插入审批记录
func (s *Store) SaveApproval(ctx context.Context, a *model.Approval) error {
	query := s.rebind(`INSERT INTO approval (id, tenant_id, chain_id, task_id, sequence, approver_kind, approver_id, status, requested_at, responded_at, response_comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.ext.ExecContext(ctx, query, a.ID, a.TenantID, a.ChainID, a.TaskID, a.Sequence, a.ApproverKind, a.ApproverID, a.Status, a.RequestedAt, a.RespondedAt, a.ResponseComment); err != nil {
		return fmt.Errorf("保存Approval失败: %w", err)
	}
	return nil
}

// GetApproval 查询审批记录，不存在返回(nil, nil)
func (s *Store) GetApproval(ctx context.Context, tenantID, id string) (*model.Approval, error) {
	var a model.Approval
	query := s.rebind(`SELECT * FROM approval WHERE id = ? AND tenant_id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &a, query, id, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询Approval失败: %w", err)
	}
	return &a, nil
}

// ListApprovalsByChain 按序号列出链内审批记录
func (s *Store) ListApprovalsByChain(ctx context.Context, tenantID, chainID string) ([]*model.Approval, error) {
	var out []*model.Approval
	query := s.rebind(`SELECT * FROM approval WHERE tenant_id = ? AND chain_id = ? ORDER BY sequence`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, chainID); err != nil {
		return nil, fmt.Errorf("查询Approval列表失败: %w", err)
	}
	return out, nil
}

// ListApprovalsByTask 列出任务下全部审批记录
func (s *Store) ListApprovalsByTask(ctx context.Context, tenantID, taskID string) ([]*model.Approval, error) {
	var out []*model.Approval
	query := s.rebind(`SELECT * FROM approval WHERE tenant_id = ? AND task_id = ? ORDER BY requested_at, sequence`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, taskID); err != nil {
		return nil, fmt.Errorf("查询Approval列表失败: %w", err)
	}
	return out, nil
}

// RespondApproval 受 status='pending' 守卫的应答写入
// 两个并发应答只有一个影响行，败者返回false
func (s *Store) RespondApproval(ctx context.Context, tenantID, id string, to model.ApprovalStatus, comment string, at time.Time) (bool, error) {
	query := s.rebind(`UPDATE approval SET status = ?, response_comment = ?, responded_at = ?
		WHERE id = ? AND tenant_id = ? AND status = 'pending'`)
	res, err := s.ext.ExecContext(ctx, query, to, comment, at, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("应答Approval失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ActivateApproval queued→pending 激活下一序号
func (s *Store) ActivateApproval(ctx context.Context, tenantID, id string) (bool, error) {
	query := s.rebind(`UPDATE approval SET status = 'pending' WHERE id = ? AND tenant_id = ? AND status = 'queued'`)
	res, err := s.ext.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		return false, fmt.Errorf("激活Approval失败: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CascadeReject 链内所有pending/queued记录级联置为rejected
func (s *Store) CascadeReject(ctx context.Context, tenantID, chainID string, at time.Time) (int64, error) {
	query := s.rebind(`UPDATE approval SET status = 'rejected', responded_at = ?
		WHERE tenant_id = ? AND chain_id = ? AND status IN ('pending', 'queued')`)
	res, err := s.ext.ExecContext(ctx, query, at, tenantID, chainID)
	if err != nil {
		return 0, fmt.Errorf("级联拒绝Approval失败: %w", err)
	}
	return res.RowsAffected()
}

// ========== AuditLog ==========

// SaveAudit 插入审计记录
func (s *Store) SaveAudit(ctx context.Context, e *model.AuditEntry) error {
	query := s.rebind(`INSERT INTO audit_log (id, tenant_id, instance_id, transition_id, action, from_state_id, to_state_id, actor, reason, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.ext.ExecContext(ctx, query, e.ID, e.TenantID, e.InstanceID, e.TransitionID, e.Action, e.FromStateID, e.ToStateID, e.Actor, e.Reason, e.CreateTime); err != nil {
		return fmt.Errorf("保存AuditEntry失败: %w", err)
	}
	return nil
}

// ListAuditByInstance 按时间列出实例的审计记录
func (s *Store) ListAuditByInstance(ctx context.Context, tenantID, instanceID string) ([]*model.AuditEntry, error) {
	var out []*model.AuditEntry
	query := s.rebind(`SELECT * FROM audit_log WHERE tenant_id = ? AND instance_id = ? ORDER BY create_time`)
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, tenantID, instanceID); err != nil {
		return nil, fmt.Errorf("查询AuditEntry列表失败: %w", err)
	}
	return out, nil
}
