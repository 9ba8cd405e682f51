package dao

// TransitionDAO workflow_transition表的数据访问对象（内部使用）
// metadata列以JSON格式存储，读写时经由model.Decode/EncodeMetadata校验
type TransitionDAO struct {
	ID          string `db:"id"`
	TenantID    string `db:"tenant_id"`
	WorkflowID  string `db:"workflow_id"`
	Name        string `db:"name"`
	FromStateID string `db:"from_state_id"`
	ToStateID   string `db:"to_state_id"`
	Metadata    string `db:"metadata"` // JSON格式存储
}
