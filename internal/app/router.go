package app

import (
	"lingua_edu_backend/docs"
	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/middleware"
	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 登录用户通用接口
	authed := router.Group("/api")
	authed.Use(middleware.AuthMiddleware(cfg))
	{
		authed.GET("/profile", c.auth.GetProfile)
	}

	// 3. 练习路由：学员本人或教师/管理员
	practice := router.Group("/api/plans/:planId/practice")
	practice.Use(middleware.AuthMiddleware(cfg))
	{
		practice.GET("/daily", c.practice.GetDailyPractice)
		practice.GET("/stats", c.practice.GetLearningStats)
		practice.POST("/submit", c.practice.SubmitResults)
		practice.POST("/replay", c.practice.PurchaseReplay)

		practice.GET("/session", c.practice.GetSession)
		practice.POST("/session", c.practice.SaveSession)
		practice.DELETE("/session", c.practice.ClearSession)
	}

	// 4. 计划与内容管理：教师和管理员
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		admin.POST("/plans", c.plan.Enroll)
		admin.GET("/plans/:planId", c.plan.GetPlan)
		admin.POST("/plans/:planId/lessons", c.plan.AddLesson)
		admin.POST("/plans/:planId/lessons/:lessonId/audio", c.plan.AttachAudio)

		admin.POST("/vocabulary/bulk", c.plan.IngestVocabulary)
		admin.POST("/structures/bulk", c.plan.IngestStructures)
	}
}
