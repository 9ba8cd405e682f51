package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LENAX/tms-engine/pkg/api"
	"github.com/LENAX/tms-engine/pkg/config"
	"github.com/LENAX/tms-engine/pkg/core/engine"
	"github.com/LENAX/tms-engine/pkg/notify"
	"github.com/LENAX/tms-engine/pkg/storage/sqldb"
)

var (
	Version   = "0.3.1"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "./configs/tms.yaml", "配置文件路径")
	host := flag.String("host", "", "监听地址（覆盖配置）")
	port := flag.Int("port", 0, "监听端口（覆盖配置）")
	flag.Parse()

	log.Printf("TMS Engine Server v%s", Version)
	log.Printf("配置文件: %s", *configPath)

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *host != "" {
		cfg.TmsEngine.HTTP.Host = *host
	}
	if *port > 0 {
		cfg.TmsEngine.HTTP.Port = *port
	}

	// 2. 打开存储
	store, err := sqldb.Open(cfg.GetDatabaseType(), cfg.GetDatabaseDSN())
	if err != nil {
		log.Fatalf("打开存储失败: %v", err)
	}
	defer store.Close()

	store.SetPool(
		cfg.TmsEngine.Storage.Database.MaxOpenConns,
		cfg.TmsEngine.Storage.Database.MaxIdleConns,
		cfg.TmsEngine.Storage.Database.ConnMaxLifetime,
		cfg.TmsEngine.Storage.Database.ConnMaxIdleTime,
	)

	// 3. 组装并启动引擎
	eng, err := engine.NewEngine(store, engine.Options{
		ScanInterval: cfg.GetScanInterval(),
		Retry: notify.RetryConfig{
			MaxRetries:      cfg.TmsEngine.Notify.Retry.MaxRetries,
			InitialInterval: cfg.TmsEngine.Notify.Retry.InitialInterval,
			MaxInterval:     cfg.TmsEngine.Notify.Retry.MaxInterval,
		},
	})
	if err != nil {
		log.Fatalf("创建引擎失败: %v", err)
	}

	// 4. 创建API服务器（Run内部先启动引擎再监听）
	srv := api.NewServer(eng, api.Config{
		Host:         cfg.TmsEngine.HTTP.Host,
		Port:         cfg.TmsEngine.HTTP.Port,
		ReadTimeout:  cfg.TmsEngine.HTTP.ReadTimeout,
		WriteTimeout: cfg.TmsEngine.HTTP.WriteTimeout,
	}, Version)

	go func() {
		if err := srv.Run(context.Background()); err != nil {
			log.Fatalf("API服务器错误: %v", err)
		}
	}()

	log.Printf("✅ TMS Engine Server started on %s", srv.Addr())

	// 5. 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 6. 优雅关闭（HTTP入口先停，引擎随后）
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TmsEngine.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭API服务器失败: %v", err)
	}
	log.Println("✅ 服务已停止")
}
