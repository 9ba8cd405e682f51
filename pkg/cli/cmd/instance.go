package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/tms-engine/pkg/cli/output"
	"github.com/LENAX/tms-engine/pkg/cli/tmsclient"
)

var (
	instanceWorkflowID string
	instanceTaskID     string
	overrideToState    string
	overrideActor      string
	overrideReason     string
)

// instanceCmd instance子命令
var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "工作流实例管理命令",
	Long:  `管理工作流实例，包括列出、查看、手动改状态和查询审计记录。`,
}

// instanceListCmd 列出实例
var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "按工作流或任务列出实例",
	RunE: func(cmd *cobra.Command, args []string) error {
		if instanceWorkflowID == "" && instanceTaskID == "" {
			output.Error("必须指定 --workflow 或 --task")
			return fmt.Errorf("workflow or task required")
		}

		client := tmsclient.New(serverURL, tenantID)
		result, err := client.ListInstances(instanceWorkflowID, instanceTaskID)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无实例")
			return nil
		}

		table := output.NewTable("INSTANCE_ID", "WORKFLOW", "CURRENT_STATE", "VERSION", "VALID", "CREATED")
		for _, inst := range result.Items {
			table.AddRow(
				inst.ID,
				inst.WorkflowID,
				inst.CurrentStateID,
				fmt.Sprintf("%d", inst.Version),
				output.InstanceBadge(inst),
				output.FormatTime(inst.CreateTime),
			)
		}
		table.Render()
		return nil
	},
}

// instanceShowCmd 查看实例详情
var instanceShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "查看实例详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		inst, err := client.GetInstance(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(inst)
		}

		fmt.Printf("Instance: %s\n", inst.ID)
		fmt.Printf("Workflow: %s\n", inst.WorkflowID)
		fmt.Printf("State:    %s\n", inst.CurrentStateID)
		fmt.Printf("Version:  %d\n", inst.Version)
		if inst.TaskID != "" {
			fmt.Printf("Task:     %s\n", inst.TaskID)
		}
		if !inst.StateValid {
			output.Warning("当前状态已被删除，实例悬空，只能通过override修复")
		}
		return nil
	},
}

// instanceOverrideCmd 管理员手动改状态
var instanceOverrideCmd = &cobra.Command{
	Use:   "override <id>",
	Short: "管理员手动改实例状态（绕过边校验与审批，落审计）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if overrideToState == "" {
			output.Error("必须指定 --to-state")
			return fmt.Errorf("to-state required")
		}

		client := tmsclient.New(serverURL, tenantID)
		res, err := client.OverrideInstance(args[0], overrideToState, overrideActor, overrideReason)
		if err != nil {
			output.Error("改状态失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(res)
		}
		output.Success("实例 %s 已改到状态 %s (version=%d)", res.Instance.ID, res.Instance.CurrentStateID, res.Instance.Version)
		return nil
	},
}

// instanceAuditCmd 查询实例审计记录
var instanceAuditCmd = &cobra.Command{
	Use:   "audit <id>",
	Short: "查询实例的流转审计记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		result, err := client.ListAudit(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无审计记录")
			return nil
		}

		table := output.NewTable("TIME", "ACTION", "FROM", "TO", "ACTOR", "REASON")
		for _, e := range result.Items {
			table.AddRow(
				output.FormatTime(e.CreateTime),
				string(e.Action),
				e.FromStateID,
				e.ToStateID,
				output.OrDash(e.Actor),
				output.OrDash(e.Reason),
			)
		}
		table.Render()
		return nil
	},
}

func init() {
	instanceListCmd.Flags().StringVar(&instanceWorkflowID, "workflow", "", "按工作流ID过滤")
	instanceListCmd.Flags().StringVar(&instanceTaskID, "task", "", "按任务ID过滤")

	instanceOverrideCmd.Flags().StringVar(&overrideToState, "to-state", "", "目标状态ID")
	instanceOverrideCmd.Flags().StringVar(&overrideActor, "actor", "", "操作人")
	instanceOverrideCmd.Flags().StringVar(&overrideReason, "reason", "", "改状态原因")

	instanceCmd.AddCommand(instanceListCmd)
	instanceCmd.AddCommand(instanceShowCmd)
	instanceCmd.AddCommand(instanceOverrideCmd)
	instanceCmd.AddCommand(instanceAuditCmd)
}
