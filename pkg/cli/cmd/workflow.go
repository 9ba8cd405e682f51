package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/tms-engine/pkg/cli/output"
	"github.com/LENAX/tms-engine/pkg/cli/tmsclient"
)

var (
	workflowName        string
	workflowDescription string
)

// workflowCmd workflow子命令
var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "工作流定义管理命令",
	Long:  `管理工作流定义，包括创建、列出、查看状态图和删除。`,
}

// workflowListCmd 列出工作流
var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有工作流",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		result, err := client.ListWorkflows()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无工作流")
			return nil
		}

		table := output.NewTable("WORKFLOW_ID", "NAME", "DESCRIPTION", "CREATED")
		for _, wf := range result.Items {
			table.AddRow(wf.ID, wf.Name, wf.Description, output.FormatTime(wf.CreateTime))
		}
		table.Render()
		return nil
	},
}

// workflowCreateCmd 创建工作流
var workflowCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建工作流",
	RunE: func(cmd *cobra.Command, args []string) error {
		if workflowName == "" {
			output.Error("必须指定 --name")
			return fmt.Errorf("name required")
		}

		client := tmsclient.New(serverURL, tenantID)
		wf, err := client.CreateWorkflow(workflowName, workflowDescription, "")
		if err != nil {
			output.Error("创建失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(wf)
		}
		output.Success("工作流已创建: %s (%s)", wf.Name, wf.ID)
		return nil
	},
}

// workflowShowCmd 查看工作流状态图
var workflowShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "查看工作流的状态与流转边",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)

		wf, err := client.GetWorkflow(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		states, err := client.ListStates(args[0])
		if err != nil {
			output.Error("查询状态失败: %v", err)
			return err
		}
		transitions, err := client.ListTransitions(args[0])
		if err != nil {
			output.Error("查询流转边失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(map[string]interface{}{
				"workflow":    wf,
				"states":      states.Items,
				"transitions": transitions.Items,
			})
		}

		fmt.Printf("Workflow: %s (%s)\n", wf.Name, wf.ID)
		if wf.Description != "" {
			fmt.Printf("Description: %s\n", wf.Description)
		}

		// 状态key索引，渲染边时显示key而非ID
		keyByID := make(map[string]string, len(states.Items))
		fmt.Println("\nStates:")
		for _, st := range states.Items {
			keyByID[st.ID] = st.Key
			fmt.Printf("  • %s (%s)  %s\n", st.Key, st.Name, st.ID)
		}

		fmt.Println("\nTransitions:")
		for _, tr := range transitions.Items {
			gate := ""
			if tr.Metadata.RequiresApproval() {
				gate = " 🔒审批"
			}
			if tr.Metadata.SlaPolicyID != "" {
				gate += " ⏰SLA"
			}
			fmt.Printf("  %s → %s%s\n", keyByID[tr.FromStateID], keyByID[tr.ToStateID], gate)
		}
		return nil
	},
}

// workflowDeleteCmd 删除工作流
var workflowDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "删除工作流（级联删除状态与流转边）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		if err := client.DeleteWorkflow(args[0]); err != nil {
			output.Error("删除失败: %v", err)
			return err
		}
		output.Success("工作流已删除: %s", args[0])
		return nil
	},
}

func init() {
	workflowCreateCmd.Flags().StringVar(&workflowName, "name", "", "工作流名称")
	workflowCreateCmd.Flags().StringVar(&workflowDescription, "description", "", "工作流描述")

	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowCreateCmd)
	workflowCmd.AddCommand(workflowShowCmd)
	workflowCmd.AddCommand(workflowDeleteCmd)
}
