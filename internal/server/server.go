package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"laekning/internal/config"
	"laekning/internal/handler"
	"laekning/internal/metrics"
	"laekning/internal/middleware"
	"laekning/internal/session"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Handlers はルート登録に必要なhandlerの束
type Handlers struct {
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Assistant    *handler.AssistantHandler
	Prescription *handler.PrescriptionHandler
	Support      *handler.SupportHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
}

// New はミドルウェアとルートを設定したechoを返す
func New(cfg config.Config, h Handlers, sessions session.Provider, m *metrics.Metrics, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(cfg)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(m))
	e.Use(sessionFor(sessions))

	RegisterRoutes(e, cfg, h, gatherer)
	return e
}

// Start は ctx がキャンセルされるまでサーバーを動かし、その後 graceful shutdown する
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("component", "server").WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.WithField("component", "server").Info("shutting down")
	return e.Shutdown(shutdownCtx)
}

// handlerで処理されなかったエラー（404/405/panic等）
func errorHandler(cfg config.Config) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(status)
			}
		}

		if status >= 500 {
			log.WithField("component", "server").WithError(err).Error("unhandled error")
			// 本番では中身を出さない
			if cfg.IsProd() {
				msg = "internal error"
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, handler.ErrorResponse{Error: msg})
		}
		if werr != nil {
			log.WithField("component", "server").WithError(werr).Warn("write error response")
		}
	}
}
