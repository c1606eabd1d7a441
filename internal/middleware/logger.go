package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"venuebook/internal/pkg/response"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestID    = "request_id"
)

// RequestID reuses an inbound X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

// ErrorLogger logs failed requests and recovers from panics.
func ErrorLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logRequestError(log, c, start, "panic", err, zap.ByteString("stack", debug.Stack()))
				response.Error(c, http.StatusInternalServerError, response.KindInternal, "internal server error")
				c.Abort()
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					logRequestError(log, c, start, "http_error", fmt.Errorf("status=%d", c.Writer.Status()))
				}
				return
			}

			for _, e := range c.Errors {
				fields := []zap.Field{}
				if e.Meta != nil {
					fields = append(fields, zap.Any("meta", e.Meta))
				}
				logRequestError(log, c, start, "request_error", e.Err, fields...)
			}
		}()

		c.Next()
	}
}

func logRequestError(log *zap.Logger, c *gin.Context, start time.Time, errType string, err error, extra ...zap.Field) {
	fields := []zap.Field{
		zap.String("type", errType),
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
		zap.Int64("user_id", c.GetInt64(CtxUserID)),
		zap.Int64("tenant_id", c.GetInt64(CtxTenantID)),
		zap.String("role", c.GetString(CtxRole)),
		zap.String("request_id", c.GetString(CtxRequestID)),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err),
	}
	fields = append(fields, extra...)

	if c.Writer.Status() >= http.StatusInternalServerError || errType == "panic" {
		log.Error("request failed", fields...)
		return
	}
	log.Warn("request failed", fields...)
}
