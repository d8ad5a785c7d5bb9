package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "clipthread/docs"
)

// SetupRoutes builds the gin engine. The /api/v1 resources require a token
// when the handler has an auth service.
func SetupRoutes(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", h.Login)

	protected := v1.Group("")
	if h.auth != nil {
		protected.Use(AuthMiddleware(h.auth))
	}

	videos := protected.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.POST("", h.CreateVideo)
		videos.GET("/:id", h.GetVideo)
		videos.DELETE("/:id", h.DeleteVideo)
		videos.POST("/:id/retry", h.RetryVideo)
		videos.PUT("/:id/research", h.UpdateResearch)
	}

	settings := protected.Group("/settings")
	{
		settings.GET("/transcriber", h.GetTranscriberSettings)
		settings.PUT("/transcriber", h.UpdateTranscriberSettings)
	}

	return router
}
