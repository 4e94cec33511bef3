package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// eventKey holds the App event a handler dispatched, if any.
const eventKey = "riel.event"

// GinZapMiddleware logs one line per request with the route, the task it
// touched and the App event it dispatched.
func GinZapMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("task", id))
		}
		if events := c.GetStringSlice(eventKey); len(events) > 0 {
			fields = append(fields, zap.Strings("events", events))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}

// recordEvent notes a dispatched event for the request log.
func recordEvent(c *gin.Context, name string) {
	c.Set(eventKey, append(c.GetStringSlice(eventKey), name))
}
