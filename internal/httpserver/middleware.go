package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	logx "eopbot/pkg/logx"
)

const requestIDKey = "request_id"

// RequestID tags every request with an id for log correlation. Webhook
// delivery ids are reused when the caller sends one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = c.GetHeader("X-GitHub-Delivery")
		}
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned by RequestID.
func RequestIDFrom(c *gin.Context) string { return c.GetString(requestIDKey) }

func Logger(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []logx.Field{
			logx.Int("status", status),
			logx.Duration("latency", time.Since(start)),
			logx.String("client_ip", c.ClientIP()),
			logx.String("method", c.Request.Method),
			logx.String("path", path),
			logx.String("request_id", RequestIDFrom(c)),
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, logx.String("error", msg))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			log.Info("http request", fields...)
		default:
			log.Debug("http request", fields...)
		}
	}
}

func Recovery(log logx.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			logx.Any("error", recovered),
			logx.String("path", c.Request.URL.Path),
			logx.String("method", c.Request.Method),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false})
	})
}

// OK acknowledges a dispatched event.
func OK(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }

// Fail rejects a request the relay could not use.
func Fail(c *gin.Context, status int) { c.AbortWithStatusJSON(status, gin.H{"ok": false}) }
