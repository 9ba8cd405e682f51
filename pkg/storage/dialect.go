package storage

// Dialect SQL方言接口（对外导出）
// 封装不同数据库的SQL语法差异，占位符统一写"?"后由sqlx.Rebind转换
type Dialect interface {
	// Name 返回方言名称（如 "sqlite", "mysql", "postgres"）
	Name() string

	// DriverName 返回database/sql驱动名
	DriverName() string

	// BooleanType 返回布尔类型
	// SQLite: INTEGER
	// MySQL: TINYINT(1)
	// PostgreSQL: BOOLEAN
	BooleanType() string

	// TimestampType 返回时间戳类型
	// SQLite/MySQL: DATETIME
	// PostgreSQL: TIMESTAMP
	TimestampType() string

	// TextType 返回文本类型
	TextType() string

	// CreateIndex 返回建索引语句
	// SQLite/PostgreSQL带IF NOT EXISTS；MySQL不支持该写法，
	// 返回裸CREATE INDEX，重复创建由IsDuplicateIndex识别后忽略
	CreateIndex(name, table, columns string) string

	// IsDuplicateIndex 判断err是否为"索引已存在"
	IsDuplicateIndex(err error) bool

	// ConfigureDB 返回建连后需要执行的配置语句（如SQLite的PRAGMA）
	ConfigureDB() []string
}
