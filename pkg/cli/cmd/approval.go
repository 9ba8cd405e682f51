package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/tms-engine/pkg/cli/output"
	"github.com/LENAX/tms-engine/pkg/cli/tmsclient"
)

var approvalComment string

// approvalCmd approval子命令
var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "审批管理命令",
	Long:  `查看任务的审批链并逐级响应（通过/拒绝）。`,
}

// approvalListCmd 列出任务审批记录
var approvalListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "列出任务的审批记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		result, err := client.ListApprovals(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无审批记录")
			return nil
		}

		table := output.NewTable("APPROVAL_ID", "CHAIN", "SEQ", "APPROVER", "STATUS", "COMMENT")
		for _, a := range result.Items {
			table.AddRow(
				a.ID,
				a.ChainID,
				formatSequence(a.Sequence),
				a.ApproverID,
				string(a.Status),
				output.OrDash(a.ResponseComment),
			)
		}
		table.Render()
		return nil
	},
}

// approvalApproveCmd 通过审批
var approvalApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "通过审批（只有链头pending记录可响应）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		a, err := client.Approve(args[0], approvalComment)
		if err != nil {
			output.Error("审批失败: %v", err)
			return err
		}
		output.Success("审批已通过: %s (#%d)", a.ID, a.Sequence)
		return nil
	},
}

// approvalRejectCmd 拒绝审批
var approvalRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "拒绝审批（链进入拒绝终态，后续记录级联拒绝）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		a, err := client.Reject(args[0], approvalComment)
		if err != nil {
			output.Error("审批失败: %v", err)
			return err
		}
		output.Warning("审批已拒绝: %s (#%d)", a.ID, a.Sequence)
		return nil
	},
}

func formatSequence(seq int) string {
	return fmt.Sprintf("#%d", seq)
}

func init() {
	approvalApproveCmd.Flags().StringVar(&approvalComment, "comment", "", "审批意见")
	approvalRejectCmd.Flags().StringVar(&approvalComment, "comment", "", "审批意见")

	approvalCmd.AddCommand(approvalListCmd)
	approvalCmd.AddCommand(approvalApproveCmd)
	approvalCmd.AddCommand(approvalRejectCmd)
}
