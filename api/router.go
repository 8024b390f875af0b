package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/doc-insight-system/api/handler"
	"github.com/fyerfyer/doc-insight-system/api/middleware"
)

// SetupRouter 设置API路由
// 配置所有的API端点并应用中间件
// taskHandler为nil时不注册任务状态查询路由
func SetupRouter(
	docHandler *handler.DocumentHandler,
	analysisHandler *handler.AnalysisHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	// 创建默认的Gin路由引擎
	router := gin.Default()

	// 应用全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	// 在调试模式下记录请求体
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	// 创建API分组
	api := router.Group("/api")
	{
		// 文档管理API
		docGroup := api.Group("/documents")
		{
			// 上传文档 - POST /api/documents
			docGroup.POST("", docHandler.UploadDocument)

			// 获取文档列表 - GET /api/documents
			docGroup.GET("", docHandler.ListDocuments)

			// 删除文档 - DELETE /api/documents/:id
			docGroup.DELETE("/:id", docHandler.DeleteDocument)
		}

		// 分析运行API
		analysisGroup := api.Group("/analyses")
		{
			// 创建分析运行 - POST /api/analyses
			analysisGroup.POST("", analysisHandler.CreateAnalysis)

			// 获取分析运行列表 - GET /api/analyses
			analysisGroup.GET("", analysisHandler.ListAnalyses)

			// 获取分析运行状态和结果 - GET /api/analyses/:id
			analysisGroup.GET("/:id", analysisHandler.GetAnalysis)

			// 获取分析运行关联的任务 - GET /api/analyses/:id/tasks
			if taskHandler != nil {
				analysisGroup.GET("/:id/tasks", taskHandler.GetRunTasks)
			}
		}

		// 任务状态API
		if taskHandler != nil {
			api.GET("/tasks/:id", taskHandler.GetTaskStatus)
		}

		// 健康检查API
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors 跨域资源共享中间件
// 如果需要支持跨域请求，可以启用此中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
