package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/tms-engine/pkg/api/dto"
	"github.com/LENAX/tms-engine/pkg/cli/output"
	"github.com/LENAX/tms-engine/pkg/cli/tmsclient"
)

var (
	taskTitle    string
	taskType     string
	taskPriority string
	taskReporter string
	taskTo       string
	taskReason   string
	taskAssignee string
)

// taskCmd task子命令
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "任务管理命令",
	Long:  `管理任务，包括创建、指派、请求流转和查看。`,
}

// taskListCmd 列出任务
var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		result, err := client.ListTasks()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}

		if len(result.Items) == 0 {
			output.Info("暂无任务")
			return nil
		}

		table := output.NewTable("TASK_ID", "TITLE", "STATUS", "ASSIGNEE", "PRIORITY", "CREATED")
		for _, t := range result.Items {
			table.AddRow(
				t.ID,
				t.Title,
				t.Status,
				output.OrDash(t.AssigneeID),
				t.Priority,
				output.FormatTime(t.CreateTime),
			)
		}
		table.Render()
		return nil
	},
}

// taskCreateCmd 创建任务
var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskTitle == "" {
			output.Error("必须指定 --title")
			return fmt.Errorf("title required")
		}

		client := tmsclient.New(serverURL, tenantID)
		t, err := client.CreateTask(dto.CreateTaskRequest{
			Title:      taskTitle,
			TypeKey:    taskType,
			Priority:   taskPriority,
			ReporterID: taskReporter,
		})
		if err != nil {
			output.Error("创建失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(t)
		}
		output.Success("任务已创建: %s (%s)", t.Title, t.ID)
		return nil
	},
}

// taskShowCmd 查看任务详情
var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "查看任务详情",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := tmsclient.New(serverURL, tenantID)
		t, err := client.GetTask(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(t)
		}

		fmt.Printf("Task:     %s\n", t.ID)
		fmt.Printf("Title:    %s\n", t.Title)
		fmt.Printf("Status:   %s\n", t.Status)
		fmt.Printf("Priority: %s\n", t.Priority)
		if t.AssigneeID != "" {
			fmt.Printf("Assignee: %s\n", t.AssigneeID)
		}
		if t.WorkflowInstanceID != "" {
			fmt.Printf("Instance: %s\n", t.WorkflowInstanceID)
		}
		fmt.Printf("Created:  %s\n", t.CreateTime.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// taskAssignCmd 指派任务
var taskAssignCmd = &cobra.Command{
	Use:   "assign <id>",
	Short: "指派任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskAssignee == "" {
			output.Error("必须指定 --assignee")
			return fmt.Errorf("assignee required")
		}

		client := tmsclient.New(serverURL, tenantID)
		t, err := client.AssignTask(args[0], taskAssignee)
		if err != nil {
			output.Error("指派失败: %v", err)
			return err
		}
		output.Success("任务 %s 已指派给 %s", t.ID, t.AssigneeID)
		return nil
	},
}

// taskTransitionCmd 请求任务流转
var taskTransitionCmd = &cobra.Command{
	Use:   "transition <id>",
	Short: "请求任务流转到目标状态",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if taskTo == "" {
			output.Error("必须指定 --to")
			return fmt.Errorf("to required")
		}

		client := tmsclient.New(serverURL, tenantID)
		res, err := client.TransitionTask(args[0], taskTo, taskReason)
		if err != nil {
			output.Error("流转失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(res)
		}

		if res.PendingApproval {
			output.Warning("流转被审批门控，审批链: %s", res.ChainID)
			for _, a := range res.Approvals {
				fmt.Printf("  #%d %s (%s)  %s\n", a.Sequence, a.ApproverID, a.ApproverKind, a.Status)
			}
			return nil
		}
		output.Success("任务 %s 已流转到 %s", res.Task.ID, res.Task.Status)
		return nil
	},
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskTitle, "title", "", "任务标题")
	taskCreateCmd.Flags().StringVar(&taskType, "type", "", "任务类型key")
	taskCreateCmd.Flags().StringVar(&taskPriority, "priority", "medium", "优先级")
	taskCreateCmd.Flags().StringVar(&taskReporter, "reporter", "", "报告人ID")

	taskAssignCmd.Flags().StringVar(&taskAssignee, "assignee", "", "被指派人ID")

	taskTransitionCmd.Flags().StringVar(&taskTo, "to", "", "目标状态key")
	taskTransitionCmd.Flags().StringVar(&taskReason, "reason", "", "流转原因")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskTransitionCmd)
}
