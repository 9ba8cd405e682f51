package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// Config HTTP服务配置（对外导出）
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig 默认HTTP服务配置
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// ListenAddr 监听地址
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server 对外HTTP入口（对外导出）
// 持有引擎并负责两者的联动启停：Run先拉起引擎后台组件（SLA扫描、
// 通知分发）再开始监听；Shutdown先停HTTP入口、排空在途请求，
// 再停引擎，保证关停期间不再有新流转进来
type Server struct {
	engine  *engine.Engine
	http    *http.Server
	version string
}

// NewServer 创建HTTP服务（对外导出）
func NewServer(eng *engine.Engine, cfg Config, version string) *Server {
	return &Server{
		engine: eng,
		http: &http.Server{
			Addr:         cfg.ListenAddr(),
			Handler:      SetupRouter(eng, version),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		version: version,
	}
}

// Run 启动引擎与HTTP监听，阻塞到Shutdown被调用或监听失败
func (s *Server) Run(ctx context.Context) error {
	if err := s.engine.Start(ctx); err != nil {
		return fmt.Errorf("启动引擎失败: %w", err)
	}

	log.Printf("🚀 [API] tms-engine v%s 监听 %s", s.version, s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.engine.Stop()
		return fmt.Errorf("HTTP监听失败: %w", err)
	}
	return nil
}

// Shutdown 优雅关停：HTTP入口先于引擎停止
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 [API] 正在关闭HTTP服务...")
	httpErr := s.http.Shutdown(ctx)
	s.engine.Stop()
	if httpErr != nil {
		return fmt.Errorf("关闭HTTP服务失败: %w", httpErr)
	}
	log.Println("✅ [API] HTTP服务已停止")
	return nil
}

// Addr 监听地址
func (s *Server) Addr() string {
	return s.http.Addr
}
