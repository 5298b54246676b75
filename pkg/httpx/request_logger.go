package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/gin-gonic/gin"
)

// RequestLogger — middleware для логирования HTTP-запросов.
// Уровень по статусу: 5xx → Errorf, 4xx → Warnf, прочее → Infof.
// request_id и trace_id логгер берёт из контекста сам.
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// не логируем служебные эндпоинты
		switch c.FullPath() {
		case "/metrics", "/ping":
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := c.Writer.Status()
		logf(log, status)(
			c.Request.Context(),
			"request method=%s path=%s status=%d ip=%s duration=%s size=%d idempotency_key=%q",
			c.Request.Method,
			path,
			status,
			c.ClientIP(),
			time.Since(start),
			c.Writer.Size(),
			c.GetHeader("Idempotency-Key"),
		)
	}
}

func logf(log ports.Logger, status int) func(ctx context.Context, format string, args ...any) {
	switch {
	case status >= http.StatusInternalServerError:
		return log.Errorf
	case status >= http.StatusBadRequest:
		return log.Warnf
	default:
		return log.Infof
	}
}
