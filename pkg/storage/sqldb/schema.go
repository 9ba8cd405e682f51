package sqldb

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/tms-engine/pkg/storage"
)

// schemaIndex 建表后补建的二级索引
type schemaIndex struct {
	name    string
	table   string
	columns string
}

var schemaIndexes = []schemaIndex{
	{"idx_workflow_definition_tenant", "workflow_definition", "tenant_id"},
	{"idx_workflow_state_workflow", "workflow_state", "tenant_id, workflow_id"},
	{"idx_workflow_transition_workflow", "workflow_transition", "tenant_id, workflow_id"},
	{"idx_workflow_transition_from", "workflow_transition", "tenant_id, from_state_id"},
	{"idx_workflow_instance_workflow", "workflow_instance", "tenant_id, workflow_id"},
	{"idx_workflow_instance_task", "workflow_instance", "tenant_id, task_id"},
	{"idx_task_tenant", "task", "tenant_id"},
	{"idx_sla_policy_tenant", "sla_policy", "tenant_id"},
	{"idx_sla_timer_task", "sla_timer", "tenant_id, task_id"},
	{"idx_sla_timer_due", "sla_timer", "due_at"},
	{"idx_approval_chain_gate", "approval_chain", "tenant_id, task_id, transition_id"},
	{"idx_approval_chain", "approval", "tenant_id, chain_id"},
	{"idx_approval_task", "approval", "tenant_id, task_id"},
}

// initSchema 初始化数据库表结构
// 状态删除的级联由DefinitionStore显式执行，这里不依赖数据库级联
// 索引语句由Dialect生成：MySQL不认CREATE INDEX IF NOT EXISTS，
// 走裸CREATE INDEX并忽略"索引已存在"错误
func initSchema(db *sqlx.DB, d storage.Dialect) error {
	ts := d.TimestampType()
	txt := d.TextType()
	boolean := d.BooleanType()

	tables := []string{
		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS workflow_definition (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description %s,
		definition %s,
		create_time %s NOT NULL
	);`, txt, txt, ts),

		`
	CREATE TABLE IF NOT EXISTS workflow_state (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		workflow_id VARCHAR(36) NOT NULL,
		state_key VARCHAR(128) NOT NULL,
		name VARCHAR(255) NOT NULL,
		CONSTRAINT uq_workflow_state_key UNIQUE (workflow_id, state_key)
	);`,

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS workflow_transition (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		workflow_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		from_state_id VARCHAR(36) NOT NULL,
		to_state_id VARCHAR(36) NOT NULL,
		metadata %s
	);`, txt),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS workflow_instance (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		workflow_id VARCHAR(36) NOT NULL,
		current_state_id VARCHAR(36) NOT NULL,
		name VARCHAR(255),
		task_id VARCHAR(36),
		version BIGINT NOT NULL DEFAULT 1,
		create_time %s NOT NULL
	);`, ts),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS task (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		type_key VARCHAR(128) NOT NULL,
		title VARCHAR(255) NOT NULL,
		status VARCHAR(128),
		priority VARCHAR(32),
		reporter_id VARCHAR(36),
		assignee_id VARCHAR(36),
		sla_policy_id VARCHAR(36),
		workflow_instance_id VARCHAR(36),
		create_time %s NOT NULL,
		update_time %s NOT NULL
	);`, ts, ts),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS sla_policy (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		duration_seconds BIGINT NOT NULL,
		breach_action %s,
		create_time %s NOT NULL
	);`, txt, ts),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS sla_timer (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		task_id VARCHAR(36) NOT NULL,
		policy_id VARCHAR(36) NOT NULL,
		started_at %s NOT NULL,
		due_at %s NOT NULL,
		stopped_at %s,
		breached %s NOT NULL DEFAULT FALSE,
		breached_at %s
	);`, ts, ts, ts, boolean, ts),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS approval_chain (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		task_id VARCHAR(36) NOT NULL,
		transition_id VARCHAR(36) NOT NULL,
		instance_id VARCHAR(36) NOT NULL,
		status VARCHAR(32) NOT NULL,
		create_time %s NOT NULL,
		resolved_at %s
	);`, ts, ts),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS approval (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		chain_id VARCHAR(36) NOT NULL,
		task_id VARCHAR(36) NOT NULL,
		sequence INTEGER NOT NULL,
		approver_kind VARCHAR(32) NOT NULL,
		approver_id VARCHAR(36) NOT NULL,
		status VARCHAR(32) NOT NULL,
		requested_at %s NOT NULL,
		responded_at %s,
		response_comment %s
	);`, ts, ts, txt),

		fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS audit_log (
		id VARCHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(36) NOT NULL,
		instance_id VARCHAR(36) NOT NULL,
		transition_id VARCHAR(36),
		action VARCHAR(32) NOT NULL,
		from_state_id VARCHAR(36),
		to_state_id VARCHAR(36),
		actor VARCHAR(255),
		reason %s,
		create_time %s NOT NULL
	);`, txt, ts),
	}

	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("执行建表SQL失败: %w", err)
		}
	}

	for _, idx := range schemaIndexes {
		if _, err := db.Exec(d.CreateIndex(idx.name, idx.table, idx.columns)); err != nil {
			if d.IsDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("创建索引 %s 失败: %w", idx.name, err)
		}
	}
	return nil
}
