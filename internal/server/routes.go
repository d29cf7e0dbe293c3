package server

import (
	"net/http"
	"strings"

	"laekning/internal/config"
	"laekning/internal/middleware"
	"laekning/internal/session"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers, gatherer prometheus.Gatherer) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	//静的なパスを先に（/:category より優先される）
	h.Cart.RegisterRoutes(e)
	h.Order.RegisterRoutes(e)
	h.Assistant.RegisterRoutes(e)
	h.Prescription.RegisterRoutes(e)
	h.Support.RegisterRoutes(e)

	h.AdminProduct.RegisterRoutes(e, cfg)
	h.AdminOrder.RegisterRoutes(e, cfg)

	h.Product.RegisterRoutes(e)
}

// セッションが不要なルート（監視・管理API）ではcookieを発行しない
func sessionFor(p session.Provider) echo.MiddlewareFunc {
	withSession := middleware.Session(p)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		wrapped := withSession(next)
		return func(c echo.Context) error {
			if skipSession(c.Path()) {
				return next(c)
			}
			return wrapped(c)
		}
	}
}

func skipSession(route string) bool {
	return route == "/metrics" || route == "/healthz" || strings.HasPrefix(route, "/admin")
}
