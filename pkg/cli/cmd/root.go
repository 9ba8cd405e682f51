package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	tenantID   string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "tms",
	Short: "TMS Engine CLI - 任务工作流引擎命令行工具",
	Long: `TMS Engine CLI 是一个用于管理任务工作流的命令行工具。

支持的功能：
  - 管理工作流定义（创建、列出、查看、删除）
  - 管理任务（创建、指派、流转、查看）
  - 管理工作流实例（列出、查看、手动改状态）
  - 管理SLA策略与计时器
  - 处理审批（通过、拒绝、查看）
  - 启动HTTP API服务

使用示例：
  # 列出所有工作流
  tms workflow list --tenant acme

  # 请求任务流转
  tms task transition <task-id> --to done --tenant acme

  # 通过审批
  tms approval approve <approval-id> --tenant acme

  # 启动HTTP服务
  tms server start --port 8080`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "TMS Engine服务器地址")
	rootCmd.PersistentFlags().StringVarP(&tenantID, "tenant", "t", "default", "租户ID（X-Tenant-ID）")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(instanceCmd)
	rootCmd.AddCommand(slaCmd)
	rootCmd.AddCommand(approvalCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
