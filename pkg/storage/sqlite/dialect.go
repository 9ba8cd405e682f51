package sqlite

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/tms-engine/pkg/storage"
)

// Dialect SQLite方言实现（对外导出）
type Dialect struct{}

// NewDialect 创建SQLite方言（对外导出）
func NewDialect() storage.Dialect {
	return &Dialect{}
}

// Name 实现Dialect接口
func (d *Dialect) Name() string { return "sqlite" }

// DriverName 实现Dialect接口
func (d *Dialect) DriverName() string { return "sqlite3" }

// BooleanType 实现Dialect接口
func (d *Dialect) BooleanType() string { return "INTEGER" }

// TimestampType 实现Dialect接口
func (d *Dialect) TimestampType() string { return "DATETIME" }

// TextType 实现Dialect接口
func (d *Dialect) TextType() string { return "TEXT" }

// CreateIndex 实现Dialect接口
func (d *Dialect) CreateIndex(name, table, columns string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);", name, table, columns)
}

// IsDuplicateIndex 实现Dialect接口（IF NOT EXISTS已兜底，不会走到这里）
func (d *Dialect) IsDuplicateIndex(err error) bool { return false }

// ConfigureDB 实现Dialect接口（WAL模式 + 忙等待超时）
func (d *Dialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
}
