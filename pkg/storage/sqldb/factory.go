package sqldb

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/tms-engine/pkg/storage"
	"github.com/LENAX/tms-engine/pkg/storage/mysql"
	"github.com/LENAX/tms-engine/pkg/storage/postgres"
	"github.com/LENAX/tms-engine/pkg/storage/sqlite"
)

// DialectFor 按数据库类型返回方言（对外导出）
func DialectFor(dbType string) (storage.Dialect, error) {
	switch dbType {
	case "sqlite", "sqlite3":
		return sqlite.NewDialect(), nil
	case "mysql":
		return mysql.NewDialect(), nil
	case "postgres", "postgresql":
		return postgres.NewDialect(), nil
	default:
		return nil, fmt.Errorf("不支持的数据库类型: %s", dbType)
	}
}

// Open 按类型与DSN打开数据库并初始化表结构（对外导出）
func Open(dbType, dsn string) (*Store, error) {
	dialect, err := DialectFor(dbType)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("配置数据库失败: %w", err)
		}
	}

	return New(db, dialect)
}
