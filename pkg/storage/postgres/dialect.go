package postgres

import (
	"fmt"

	_ "github.com/lib/pq"

	"github.com/LENAX/tms-engine/pkg/storage"
)

// Dialect PostgreSQL方言实现（对外导出）
type Dialect struct{}

// NewDialect 创建PostgreSQL方言（对外导出）
func NewDialect() storage.Dialect {
	return &Dialect{}
}

// Name 实现Dialect接口
func (d *Dialect) Name() string { return "postgres" }

// DriverName 实现Dialect接口
func (d *Dialect) DriverName() string { return "postgres" }

// BooleanType 实现Dialect接口
func (d *Dialect) BooleanType() string { return "BOOLEAN" }

// TimestampType 实现Dialect接口
func (d *Dialect) TimestampType() string { return "TIMESTAMP" }

// TextType 实现Dialect接口
func (d *Dialect) TextType() string { return "TEXT" }

// CreateIndex 实现Dialect接口
func (d *Dialect) CreateIndex(name, table, columns string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);", name, table, columns)
}

// IsDuplicateIndex 实现Dialect接口（IF NOT EXISTS已兜底，不会走到这里）
func (d *Dialect) IsDuplicateIndex(err error) bool { return false }

// ConfigureDB 实现Dialect接口
func (d *Dialect) ConfigureDB() []string { return nil }
