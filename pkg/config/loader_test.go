package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")
	configContent := `
tms-engine:
  general:
    instance_name: "test-engine"
    log_level: "debug"
    env: "test"
  http:
    host: "127.0.0.1"
    port: 9090
    read_timeout: "20s"
  storage:
    database:
      type: "sqlite"
      dsn: "./test.db"
      max_open_conns: 5
      max_idle_conns: 2
  sla:
    scan_interval: "3s"
  notify:
    retry:
      max_retries: 3
      initial_interval: "500ms"
      max_interval: "10s"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "test-engine", cfg.TmsEngine.General.InstanceName)
	assert.Equal(t, "debug", cfg.TmsEngine.General.LogLevel)
	assert.Equal(t, "sqlite", cfg.GetDatabaseType())
	assert.Equal(t, "./test.db", cfg.GetDatabaseDSN())
	assert.Equal(t, "127.0.0.1:9090", cfg.GetListenAddr())
	assert.Equal(t, 3*time.Second, cfg.GetScanInterval())
	assert.Equal(t, 3, cfg.TmsEngine.Notify.Retry.MaxRetries)
}

func TestLoad_WithDefaults(t *testing.T) {
	// 最小配置（测试默认值填充）
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "minimal.yaml")
	configContent := `
tms-engine:
  storage:
    database:
      type: "sqlite"
      dsn: "./test.db"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.TmsEngine.General.InstanceName)
	assert.Equal(t, 8080, cfg.TmsEngine.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.GetScanInterval())
	assert.Equal(t, 5, cfg.TmsEngine.Notify.Retry.MaxRetries)
	assert.Greater(t, cfg.TmsEngine.Storage.Database.MaxOpenConns, 0)
}

func TestLoad_MissingFile(t *testing.T) {
	// 文件不存在返回默认配置
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tms-engine", cfg.TmsEngine.General.InstanceName)
	assert.Equal(t, "sqlite", cfg.GetDatabaseType())
}

func TestLoad_WithEnvVars(t *testing.T) {
	t.Setenv("TMS_TEST_DSN", "/tmp/env-test.db")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "env-test.yaml")
	configContent := `
tms-engine:
  storage:
    database:
      type: "sqlite"
      dsn: "${TMS_TEST_DSN}"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-test.db", cfg.GetDatabaseDSN())
}

func TestLoad_InvalidDBType(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	configContent := `
tms-engine:
  storage:
    database:
      type: "oracle"
      dsn: "whatever"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	assert.NoError(t, Validate(cfg))

	cfg.TmsEngine.General.LogLevel = "verbose"
	assert.Error(t, Validate(cfg))
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("2h30m")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour+30*time.Minute, d)

	d, err = ParseDuration("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	_, err = ParseDuration("invalid")
	assert.Error(t, err)
}
