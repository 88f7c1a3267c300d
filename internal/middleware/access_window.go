package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/config"
)

// AccessWindow rejects requests outside the configured hours. A nil window allows everything.
func AccessWindow(window *config.AccessWindow, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		if window != nil && !window.Allows(now().Hour()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access not allowed at this time"})
			return
		}
		c.Next()
	}
}
