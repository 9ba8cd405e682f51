package config

import (
	"fmt"
)

// Validate 校验配置合法性
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}

	// 校验General
	if cfg.TmsEngine.General.LogLevel != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[cfg.TmsEngine.General.LogLevel] {
			return fmt.Errorf("log_level必须是debug/info/warn/error之一")
		}
	}

	// 校验HTTP
	if cfg.TmsEngine.HTTP.Port <= 0 || cfg.TmsEngine.HTTP.Port > 65535 {
		return fmt.Errorf("http.port必须在1-65535之间")
	}

	// 校验Storage.Database
	validDBTypes := map[string]bool{
		"sqlite":     true,
		"postgres":   true,
		"postgresql": true,
		"mysql":      true,
	}
	if !validDBTypes[cfg.TmsEngine.Storage.Database.Type] {
		return fmt.Errorf("database.type必须是sqlite/postgres/mysql之一")
	}
	if cfg.TmsEngine.Storage.Database.DSN == "" {
		return fmt.Errorf("database.dsn不能为空")
	}
	if cfg.TmsEngine.Storage.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns必须大于0")
	}
	if cfg.TmsEngine.Storage.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns不能为负数")
	}

	// 校验SLA
	if cfg.TmsEngine.Sla.ScanInterval <= 0 {
		return fmt.Errorf("sla.scan_interval必须大于0")
	}

	// 校验Notify.Retry
	if cfg.TmsEngine.Notify.Retry.MaxRetries < 0 {
		return fmt.Errorf("notify.retry.max_retries不能为负数")
	}
	if cfg.TmsEngine.Notify.Retry.MaxInterval > 0 &&
		cfg.TmsEngine.Notify.Retry.InitialInterval > cfg.TmsEngine.Notify.Retry.MaxInterval {
		return fmt.Errorf("notify.retry.initial_interval不能大于max_interval")
	}

	return nil
}
