package middleware

import (
	"net/http"

	"croco_webapp/internal/cache"

	"github.com/gin-gonic/gin"
)

// InvalidateUserCache drops the caller's cached responses after a
// state-changing request. Must run after JWT.
func InvalidateUserCache(uc *cache.UserCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Writer.Status() >= http.StatusInternalServerError {
			return
		}
		if userID, ok := UserID(c); ok {
			uc.Invalidate(c.Request.Context(), userID)
		}
	}
}
