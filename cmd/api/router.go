package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"product-importer-backend/internal/shared/middleware"
	"product-importer-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupProductRoutes(v1, c)
		setupJobRoutes(v1, c)
		setupWebhookRoutes(v1, c)
	}

	return router
}

func setupProductRoutes(v1 *gin.RouterGroup, c *container.Container) {
	products := v1.Group("/products")
	{
		products.GET("", c.ProductHandler.List)
		products.POST("", c.ProductHandler.Create)
		products.GET("/:id", c.ProductHandler.Get)
		products.PUT("/:id", c.ProductHandler.Update)
		products.DELETE("/:id", c.ProductHandler.Delete)

		// Bulk import: multipart CSV upload, processed by the worker.
		products.POST("/import", c.UploadHandler.Upload)
	}
}

func setupJobRoutes(v1 *gin.RouterGroup, c *container.Container) {
	jobs := v1.Group("/jobs")
	{
		jobs.GET("", c.JobHandler.List)
		jobs.GET("/:job_id", c.JobHandler.Get)
		jobs.POST("/:job_id/cancel", c.JobHandler.Cancel)
	}
}

func setupWebhookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	webhooks := v1.Group("/webhooks")
	{
		webhooks.GET("", c.WebhookHandler.List)
		webhooks.POST("", c.WebhookHandler.Create)
		webhooks.GET("/:id", c.WebhookHandler.Get)
		webhooks.PUT("/:id", c.WebhookHandler.Update)
		webhooks.DELETE("/:id", c.WebhookHandler.Delete)
	}
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = "error"
			health["status"] = "degraded"
		}

		redisStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			redisStatus = "error"
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
