package testserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"artbid-console/utils"
)

// RequestLoggerMiddleware logs incoming requests with timing.
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// RequireBearerMiddleware rejects requests whose Authorization header
// does not carry the expected bearer token, answering 401 the way the
// real backend does so session-clearing behavior is exercisable.
func (s *Server) RequireBearerMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token != s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false, "data": nil, "message": "Unauthorized",
		})
		return
	}
	c.Next()
}
