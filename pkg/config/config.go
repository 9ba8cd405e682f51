package config

import (
	"time"
)

// Config 引擎服务配置（对外导出）
type Config struct {
	TmsEngine struct {
		General struct {
			InstanceName string `yaml:"instance_name"`
			LogLevel     string `yaml:"log_level"`
			Env          string `yaml:"env"`
		} `yaml:"general"`
		HTTP struct {
			Host            string        `yaml:"host"`
			Port            int           `yaml:"port"`
			ReadTimeout     time.Duration `yaml:"read_timeout"`
			WriteTimeout    time.Duration `yaml:"write_timeout"`
			ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		} `yaml:"http"`
		Storage struct {
			Database struct {
				Type            string        `yaml:"type"`
				DSN             string        `yaml:"dsn"`
				MaxOpenConns    int           `yaml:"max_open_conns"`
				MaxIdleConns    int           `yaml:"max_idle_conns"`
				ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
				ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
			} `yaml:"database"`
		} `yaml:"storage"`
		Sla struct {
			ScanInterval time.Duration `yaml:"scan_interval"`
		} `yaml:"sla"`
		Notify struct {
			Retry struct {
				MaxRetries      int           `yaml:"max_retries"`
				InitialInterval time.Duration `yaml:"initial_interval"`
				MaxInterval     time.Duration `yaml:"max_interval"`
			} `yaml:"retry"`
			WebhookTimeout time.Duration `yaml:"webhook_timeout"`
		} `yaml:"notify"`
	} `yaml:"tms-engine"`
}

// GetDatabaseType 获取数据库类型
func (c *Config) GetDatabaseType() string {
	return c.TmsEngine.Storage.Database.Type
}

// GetDatabaseDSN 获取数据库DSN
func (c *Config) GetDatabaseDSN() string {
	return c.TmsEngine.Storage.Database.DSN
}

// GetListenAddr 获取HTTP监听地址
func (c *Config) GetListenAddr() string {
	host := c.TmsEngine.HTTP.Host
	port := c.TmsEngine.HTTP.Port
	if port <= 0 {
		port = 8080
	}
	return joinHostPort(host, port)
}

// GetScanInterval 获取SLA扫描间隔
func (c *Config) GetScanInterval() time.Duration {
	if c.TmsEngine.Sla.ScanInterval <= 0 {
		return 5 * time.Second
	}
	return c.TmsEngine.Sla.ScanInterval
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	// General默认值
	if c.TmsEngine.General.InstanceName == "" {
		c.TmsEngine.General.InstanceName = "tms-engine"
	}
	if c.TmsEngine.General.LogLevel == "" {
		c.TmsEngine.General.LogLevel = "info"
	}
	if c.TmsEngine.General.Env == "" {
		c.TmsEngine.General.Env = "dev"
	}

	// HTTP默认值
	if c.TmsEngine.HTTP.Port <= 0 {
		c.TmsEngine.HTTP.Port = 8080
	}
	if c.TmsEngine.HTTP.ReadTimeout <= 0 {
		c.TmsEngine.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.TmsEngine.HTTP.WriteTimeout <= 0 {
		c.TmsEngine.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.TmsEngine.HTTP.ShutdownTimeout <= 0 {
		c.TmsEngine.HTTP.ShutdownTimeout = 10 * time.Second
	}

	// Storage默认值
	if c.TmsEngine.Storage.Database.Type == "" {
		c.TmsEngine.Storage.Database.Type = "sqlite"
	}
	if c.TmsEngine.Storage.Database.DSN == "" {
		c.TmsEngine.Storage.Database.DSN = "./tms.db"
	}
	if c.TmsEngine.Storage.Database.MaxOpenConns <= 0 {
		c.TmsEngine.Storage.Database.MaxOpenConns = 10
	}
	if c.TmsEngine.Storage.Database.MaxIdleConns <= 0 {
		c.TmsEngine.Storage.Database.MaxIdleConns = 5
	}
	if c.TmsEngine.Storage.Database.ConnMaxLifetime <= 0 {
		c.TmsEngine.Storage.Database.ConnMaxLifetime = time.Hour
	}
	if c.TmsEngine.Storage.Database.ConnMaxIdleTime <= 0 {
		c.TmsEngine.Storage.Database.ConnMaxIdleTime = 30 * time.Minute
	}

	// SLA默认值
	if c.TmsEngine.Sla.ScanInterval <= 0 {
		c.TmsEngine.Sla.ScanInterval = 5 * time.Second
	}

	// Notify默认值
	if c.TmsEngine.Notify.Retry.MaxRetries <= 0 {
		c.TmsEngine.Notify.Retry.MaxRetries = 5
	}
	if c.TmsEngine.Notify.Retry.InitialInterval <= 0 {
		c.TmsEngine.Notify.Retry.InitialInterval = time.Second
	}
	if c.TmsEngine.Notify.Retry.MaxInterval <= 0 {
		c.TmsEngine.Notify.Retry.MaxInterval = 30 * time.Second
	}
	if c.TmsEngine.Notify.WebhookTimeout <= 0 {
		c.TmsEngine.Notify.WebhookTimeout = 10 * time.Second
	}
}
