package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// LimitConcurrentRequests rejects requests with 429 while maxConcurrent
// requests are already in flight.
//
//	router.Use(LimitConcurrentRequests(32))
func LimitConcurrentRequests(maxConcurrent int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(maxConcurrent)

	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "too many concurrent requests",
			})
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
