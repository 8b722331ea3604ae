package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LexiMind/backend/go/pkg/ratelimiter"
)

// RateLimitMiddleware rejects requests once the service-wide ingress limit
// is exhausted. A nil limiter disables limiting.
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// RegisterRoutes registers all the routes for the orchestrator service.
func RegisterRoutes(router *gin.Engine, api *API, limiter ratelimiter.RateLimiter) {
	router.GET("/healthz", api.HealthHandler)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(limiter))

	tasks := v1.Group("/tasks")
	{
		tasks.POST("", api.SubmitTaskHandler)
		tasks.GET("", api.GetTasksHandler)
		tasks.GET("/:id", api.GetTaskHandler)
		tasks.GET("/:id/history", api.GetTaskHistoryHandler)
	}
}
