package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moralgraph/moralgraph-backend-go/internal/config"
	"github.com/moralgraph/moralgraph-backend-go/internal/database"
	"github.com/moralgraph/moralgraph-backend-go/internal/handler"
	"github.com/moralgraph/moralgraph-backend-go/internal/llm"
	"github.com/moralgraph/moralgraph-backend-go/internal/middleware"
	"github.com/moralgraph/moralgraph-backend-go/internal/repository"
	"github.com/moralgraph/moralgraph-backend-go/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Moralgraph Backend API is running",
		})
	})

	// 组装依赖
	db := database.GetDB()
	pointRepo := repository.NewPointRepository(db)
	cacheRepo := repository.NewCacheRepository(db)
	judge := llm.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)

	analysisService := service.NewAnalysisService(judge, pointRepo, cacheRepo)
	pointService := service.NewPointService(pointRepo)

	analysisHandler := handler.NewAnalysisHandler(analysisService)
	pointHandler := handler.NewPointHandler(pointService)
	vizHandler := handler.NewVizHandler(pointService)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 场景分析接口
		analysis := api.Group("/analysis")
		analysis.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
		{
			analysis.POST("", analysisHandler.Analyze)
			analysis.GET("/cache", analysisHandler.GetCacheStats)
			analysis.DELETE("/cache", analysisHandler.ClearCache)
		}

		// 点位接口
		points := api.Group("/points")
		{
			points.GET("", pointHandler.List)
			points.GET("/summary", pointHandler.Summary)
			points.DELETE("", pointHandler.Clear)
			points.DELETE("/:id", pointHandler.Remove)
			points.POST("/:id/uncertainty", pointHandler.ToggleUncertainty)
		}

		// 渲染元数据接口
		viz := api.Group("/viz")
		{
			viz.GET("/render", vizHandler.Render)
		}
	}

	return r
}
