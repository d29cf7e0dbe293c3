package middleware

import (
	"time"

	"laekning/internal/metrics"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// アクセスログ（logrus）とHTTPメトリクス
func RequestLogger(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				//HTTPErrorHandlerを先に呼んでステータスを確定させる
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)

			//ルート未登録は固定ラベル（カーディナリティ対策）
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(req.Method, route, status, elapsed)

			entry := log.WithFields(log.Fields{
				"component": "http",
				"method":    req.Method,
				"path":      req.URL.Path,
				"route":     route,
				"status":    status,
				"latency":   elapsed.String(),
				"remote_ip": c.RealIP(),
			})
			switch {
			case status >= 500:
				entry.Error("request")
			case status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}
