package mysql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestCreateIndexOmitsIfNotExists(t *testing.T) {
	d := &Dialect{}
	stmt := d.CreateIndex("idx_task_tenant", "task", "tenant_id")
	assert.Equal(t, "CREATE INDEX idx_task_tenant ON task(tenant_id);", stmt)
	assert.NotContains(t, stmt, "IF NOT EXISTS")
}

func TestIsDuplicateIndex(t *testing.T) {
	d := &Dialect{}

	assert.True(t, d.IsDuplicateIndex(&mysql.MySQLError{Number: 1061, Message: "Duplicate key name 'idx_task_tenant'"}))
	// 包装后的错误也要能识别
	assert.True(t, d.IsDuplicateIndex(fmt.Errorf("创建索引失败: %w", &mysql.MySQLError{Number: 1061})))

	assert.False(t, d.IsDuplicateIndex(&mysql.MySQLError{Number: 1062}))
	assert.False(t, d.IsDuplicateIndex(errors.New("connection refused")))
	assert.False(t, d.IsDuplicateIndex(nil))
}
