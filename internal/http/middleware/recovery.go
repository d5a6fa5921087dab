package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

func Recovery(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l.ErrorContext(c.Request.Context(), "panic recovered",
					"request_id", GetRequestID(c),
					"panic", r,
					"stack", string(debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Something went wrong. Please try again.",
					"request_id": GetRequestID(c),
				})
			}
		}()
		c.Next()
	}
}
