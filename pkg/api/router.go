package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/tms-engine/pkg/api/handler"
	"github.com/LENAX/tms-engine/pkg/api/middleware"
	"github.com/LENAX/tms-engine/pkg/core/engine"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, version string) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	workflowHandler := handler.NewWorkflowHandler(eng)
	stateHandler := handler.NewStateHandler(eng)
	transitionHandler := handler.NewTransitionHandler(eng)
	instanceHandler := handler.NewInstanceHandler(eng)
	taskHandler := handler.NewTaskHandler(eng)
	slaHandler := handler.NewSlaHandler(eng)
	approvalHandler := handler.NewApprovalHandler(eng)
	auditHandler := handler.NewAuditHandler(eng)
	healthHandler := handler.NewHealthHandler(version)

	// 健康检查路由（不带租户要求）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// 业务路由组：全部要求X-Tenant-ID
	tms := router.Group("/tms")
	tms.Use(middleware.Tenant())
	{
		// 工作流定义
		workflows := tms.Group("/workflows")
		{
			workflows.GET("", workflowHandler.List)
			workflows.POST("", workflowHandler.Create)

			// 实例路由（静态段在:id之前注册）
			instances := workflows.Group("/instances")
			{
				instances.GET("", instanceHandler.List)
				instances.POST("", instanceHandler.Create)
				instances.GET("/:id", instanceHandler.Get)
				instances.PUT("/:id", instanceHandler.Update)
				instances.DELETE("/:id", instanceHandler.Delete)
				instances.POST("/:id/override", instanceHandler.Override)
			}

			workflows.GET("/:id", workflowHandler.Get)
			workflows.PUT("/:id", workflowHandler.Update)
			workflows.DELETE("/:id", workflowHandler.Delete)
			workflows.GET("/:id/entry-state", workflowHandler.EntryState)
		}

		// 状态
		states := tms.Group("/workflow-states")
		{
			states.GET("", stateHandler.List)
			states.POST("", stateHandler.Create)
			states.GET("/:id", stateHandler.Get)
			states.PUT("/:id", stateHandler.Update)
			states.DELETE("/:id", stateHandler.Delete)
		}

		// 流转边
		transitions := tms.Group("/workflow-transitions")
		{
			transitions.GET("", transitionHandler.List)
			transitions.POST("", transitionHandler.Create)
			transitions.GET("/:id", transitionHandler.Get)
			transitions.PUT("/:id", transitionHandler.Update)
			transitions.DELETE("/:id", transitionHandler.Delete)
		}

		// 任务
		tasks := tms.Group("/tasks")
		{
			tasks.GET("", taskHandler.List)
			tasks.POST("", taskHandler.Create)
			tasks.GET("/:id", taskHandler.Get)
			tasks.PUT("/:id", taskHandler.Update)
			tasks.POST("/:id/assign", taskHandler.Assign)
			tasks.POST("/:id/transition", taskHandler.Transition)
			tasks.POST("/:id/instances", taskHandler.BindInstance)
		}

		// SLA策略与计时器
		policies := tms.Group("/sla-policies")
		{
			policies.GET("", slaHandler.ListPolicies)
			policies.POST("", slaHandler.CreatePolicy)
			policies.GET("/:id", slaHandler.GetPolicy)
		}
		timers := tms.Group("/sla-timers")
		{
			timers.GET("", slaHandler.ListTimers)
			timers.POST("", slaHandler.StartTimer)
			timers.POST("/:id/stop", slaHandler.StopTimer)
		}

		// 审批
		approvals := tms.Group("/approvals")
		{
			approvals.GET("", approvalHandler.List)
			approvals.POST("/:id/approve", approvalHandler.Approve)
			approvals.POST("/:id/reject", approvalHandler.Reject)
		}

		// 审计
		tms.GET("/audit", auditHandler.List)
	}

	return router
}
