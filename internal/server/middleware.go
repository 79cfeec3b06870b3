package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID     = "X-Request-Id"
	contextRequestIDKey = "request_id"
)

// requestID assigns every request a correlation id, honoring one the
// caller already sent. The id is echoed in the response header and
// attached to every log line for the request.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.Must(uuid.NewV7()).String()
		}
		c.Set(contextRequestIDKey, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(contextRequestIDKey),
		)
	}
}

// recovery converts handler panics into a 500 with the standard error
// shape, keeping the stack out of the response.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.ErrorContext(c.Request.Context(), "handler panic",
					"panic", fmt.Sprint(r),
					"path", c.Request.URL.Path,
					"request_id", c.GetString(contextRequestIDKey),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Error interno"})
			}
		}()
		c.Next()
	}
}
