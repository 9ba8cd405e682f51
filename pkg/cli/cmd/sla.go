package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/tms-engine/pkg/cli/output"
	"github.com/LENAX/tms-engine/pkg/cli/tmsclient"
)

// slaCmd sla子命令
var slaCmd = &cobra.Command{
	Use:   "sla",
	Short: "SLA策略与计时器管理命令",
	Long:  `管理SLA策略并查看任务的计时器状态。`,
}

// slaPoliciesCmd 列出SLA策略
var slaPoliciesCmd = &cobra.Command{
	Use:   "policies",
	Short: "列出所有SLA策略",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		result, err := client.ListSlaPolicies()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无SLA策略")
			return nil
		}

		table := output.NewTable("POLICY_ID", "NAME", "DURATION", "BREACH_ACTION")
		for _, p := range result.Items {
			table.AddRow(p.ID, p.Name, output.Duration(p.DurationSeconds), string(p.BreachAction.Kind))
		}
		table.Render()
		return nil
	},
}

// slaTimersCmd 列出任务计时器
var slaTimersCmd = &cobra.Command{
	Use:   "timers <task-id>",
	Short: "列出任务的SLA计时器",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		result, err := client.ListSlaTimers(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无计时器")
			return nil
		}

		table := output.NewTable("TIMER_ID", "POLICY", "DUE_AT", "STATUS")
		for _, t := range result.Items {
			table.AddRow(t.ID, t.PolicyID, output.FormatTime(t.DueAt), output.TimerBadge(t))
		}
		table.Render()
		fmt.Printf("\n总计: %d 个计时器\n", result.Total)
		return nil
	},
}

func init() {
	slaCmd.AddCommand(slaPoliciesCmd)
	slaCmd.AddCommand(slaTimersCmd)
}
