package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"evidenze-chat/internal/logger"
)

// Recovery is the process-wide fallback: anything unclassified that escapes a
// handler becomes a generic internal-error response instead of a crash.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorWithFields("unhandled panic in request", logger.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	})
}
