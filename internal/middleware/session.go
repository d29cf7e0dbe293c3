package middleware

import (
	"errors"
	"net/http"

	"laekning/internal/session"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const CtxSessionKey = "session"

var ErrNoSession = errors.New("no session")

// 1リクエスト分のセッション。CommitSession済みならレスポンス直前には書かない
type requestSession struct {
	session.Handle
	committed bool
}

// リクエストごとにセッションを開き、レスポンスを書く直前にCommitする。
// 変更を伴うhandlerは CommitSession で先に確定させ、失敗を500で返す。
func Session(p session.Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h, err := p.Open(c.Response(), c.Request())
			if err != nil {
				log.WithField("component", "session").WithError(err).Error("session open failed")
				return c.JSON(http.StatusInternalServerError, errorJSON("session error"))
			}
			rs := &requestSession{Handle: h}
			c.Set(CtxSessionKey, rs)

			//ヘッダ確定前にcookieを書く
			c.Response().Before(func() {
				if rs.committed {
					return
				}
				rs.committed = true
				if err := rs.Handle.Commit(); err != nil {
					log.WithField("component", "session").WithError(err).Error("session commit failed")
				}
			})

			return next(c)
		}
	}
}

// CommitSession はセッションを今すぐ書き出す（cookieの上限超過などをここで検出する）
func CommitSession(c echo.Context) error {
	rs, ok := c.Get(CtxSessionKey).(*requestSession)
	if !ok || rs == nil {
		return ErrNoSession
	}
	rs.committed = true
	if err := rs.Handle.Commit(); err != nil {
		log.WithField("component", "session").WithError(err).Error("session commit failed")
		return err
	}
	return nil
}

// Sessionミドルウェアが入れたストア。無ければnil
func SessionStore(c echo.Context) session.Store {
	rs, ok := c.Get(CtxSessionKey).(*requestSession)
	if !ok || rs == nil {
		return nil
	}
	return rs
}
