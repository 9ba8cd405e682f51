package dao

import "time"

// SlaPolicyDAO sla_policy表的数据访问对象（内部使用）
// breach_action列以JSON格式存储，读写时经由model.Decode/EncodeBreachAction校验
type SlaPolicyDAO struct {
	ID              string    `db:"id"`
	TenantID        string    `db:"tenant_id"`
	Name            string    `db:"name"`
	DurationSeconds int64     `db:"duration_seconds"`
	BreachAction    string    `db:"breach_action"` // JSON格式存储
	CreateTime      time.Time `db:"create_time"`
}
