package mysql

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/LENAX/tms-engine/pkg/storage"
)

// errDuplicateKeyName MySQL错误码1061：索引已存在
const errDuplicateKeyName = 1061

// Dialect MySQL方言实现（对外导出）
type Dialect struct{}

// NewDialect 创建MySQL方言（对外导出）
func NewDialect() storage.Dialect {
	return &Dialect{}
}

// Name 实现Dialect接口
func (d *Dialect) Name() string { return "mysql" }

// DriverName 实现Dialect接口
func (d *Dialect) DriverName() string { return "mysql" }

// BooleanType 实现Dialect接口
func (d *Dialect) BooleanType() string { return "TINYINT(1)" }

// TimestampType 实现Dialect接口
func (d *Dialect) TimestampType() string { return "DATETIME" }

// TextType 实现Dialect接口
func (d *Dialect) TextType() string { return "TEXT" }

// CreateIndex 实现Dialect接口
// MySQL的CREATE INDEX不支持IF NOT EXISTS，重复创建报1061，
// 调用方经IsDuplicateIndex识别后忽略
func (d *Dialect) CreateIndex(name, table, columns string) string {
	return fmt.Sprintf("CREATE INDEX %s ON %s(%s);", name, table, columns)
}

// IsDuplicateIndex 实现Dialect接口
func (d *Dialect) IsDuplicateIndex(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateKeyName
}

// ConfigureDB 实现Dialect接口
func (d *Dialect) ConfigureDB() []string { return nil }
