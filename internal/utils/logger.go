package utils

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog so middleware helpers and handler code share one
// structured logger.
type Logger struct {
	*slog.Logger
}

// NewLogger builds a JSON logger at the given level. Unknown levels fall
// back to info.
func NewLogger(level string) *Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: slog.New(handler)}
}

// NewSlogLogger wraps an already-configured slog logger.
func NewSlogLogger(logger *slog.Logger) *Logger {
	return &Logger{Logger: logger}
}

const loggerKey = "logger"

// ContextLogger places a request-scoped logger on the gin context so
// downstream code can log with the request id attached.
func ContextLogger(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger.Logger
		if requestID := c.GetString("request_id"); requestID != "" {
			requestLogger = requestLogger.With("request_id", requestID)
		}
		c.Set(loggerKey, requestLogger)
		c.Next()
	}
}

// FromContext returns the request-scoped logger, or the fallback when the
// middleware did not run.
func FromContext(c *gin.Context, fallback *Logger) *slog.Logger {
	if value, exists := c.Get(loggerKey); exists {
		if l, ok := value.(*slog.Logger); ok {
			return l
		}
	}
	return fallback.Logger
}

// RequestLogger logs one line per completed request.
func RequestLogger(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("Request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"))
	}
}
