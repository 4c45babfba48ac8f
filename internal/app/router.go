package app

import (
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/middleware"
	"cbme_survey_backend/internal/util"
	"cbme_survey_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 管理员报表接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.POST("/submit", c.survey.Submit)
		api.GET("/survey/options", c.survey.Options)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	adminAuth := []gin.HandlerFunc{
		middleware.AuthMiddleware(a.jwtSecret),
		middleware.RoleMiddleware(util.RoleAdmin),
	}

	admin := router.Group("/api/admin/survey")
	admin.Use(adminAuth...)
	{
		admin.GET("/responses", c.survey.ListResponses)
		admin.GET("/responses/export", c.survey.ExportCSV)
		admin.POST("/responses/archive", c.survey.ArchiveCSV)
		admin.GET("/responses/:id", c.survey.GetResponse)
		admin.GET("/summary", c.survey.OverallSummary)
		admin.GET("/summary/professions", c.survey.SummaryByProfession)
	}

	// 本地归档文件仅管理员可下载
	if cfg.Storage.Type != util.StorageMinio {
		uploads := router.Group("/uploads")
		uploads.Use(adminAuth...)
		uploads.Static("/", cfg.Storage.LocalPath)
	}
}
