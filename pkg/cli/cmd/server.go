package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/tms-engine/pkg/api"
	"github.com/LENAX/tms-engine/pkg/cli/output"
	"github.com/LENAX/tms-engine/pkg/config"
	"github.com/LENAX/tms-engine/pkg/core/engine"
	"github.com/LENAX/tms-engine/pkg/notify"
	"github.com/LENAX/tms-engine/pkg/storage/sqldb"
)

var (
	serverPort int
	serverHost string
	configPath string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理TMS Engine HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动TMS Engine HTTP API服务。

示例：
  # 使用默认配置启动
  tms server start

  # 指定端口启动
  tms server start --port 8080

  # 指定配置文件启动
  tms server start --config ./configs/tms.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置（文件不存在时走默认值）
		cfg, err := config.Load(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}

		// 命令行参数覆盖配置
		if cmd.Flags().Changed("port") {
			cfg.TmsEngine.HTTP.Port = serverPort
		}
		if cmd.Flags().Changed("host") {
			cfg.TmsEngine.HTTP.Host = serverHost
		}

		// 打开存储
		store, err := sqldb.Open(cfg.GetDatabaseType(), cfg.GetDatabaseDSN())
		if err != nil {
			output.Error("打开存储失败: %v", err)
			return err
		}
		defer store.Close()

		store.SetPool(
			cfg.TmsEngine.Storage.Database.MaxOpenConns,
			cfg.TmsEngine.Storage.Database.MaxIdleConns,
			cfg.TmsEngine.Storage.Database.ConnMaxLifetime,
			cfg.TmsEngine.Storage.Database.ConnMaxIdleTime,
		)

		// 组装引擎
		eng, err := engine.NewEngine(store, engine.Options{
			ScanInterval: cfg.GetScanInterval(),
			Retry: notify.RetryConfig{
				MaxRetries:      cfg.TmsEngine.Notify.Retry.MaxRetries,
				InitialInterval: cfg.TmsEngine.Notify.Retry.InitialInterval,
				MaxInterval:     cfg.TmsEngine.Notify.Retry.MaxInterval,
			},
		})
		if err != nil {
			output.Error("创建引擎失败: %v", err)
			return err
		}

		// 创建API服务器（Run内部先启动引擎再监听）
		srv := api.NewServer(eng, api.Config{
			Host:         cfg.TmsEngine.HTTP.Host,
			Port:         cfg.TmsEngine.HTTP.Port,
			ReadTimeout:  cfg.TmsEngine.HTTP.ReadTimeout,
			WriteTimeout: cfg.TmsEngine.HTTP.WriteTimeout,
		}, Version)

		go func() {
			if err := srv.Run(context.Background()); err != nil {
				log.Printf("API服务器错误: %v", err)
			}
		}()

		output.Success("TMS Engine Server started on %s", srv.Addr())

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		output.Info("正在关闭服务...")

		// 优雅关闭（HTTP入口先停，引擎随后）
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TmsEngine.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}
		output.Success("服务已停止")

		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "监听端口")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址")
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "./configs/tms.yaml", "配置文件路径")

	serverCmd.AddCommand(serverStartCmd)
}
