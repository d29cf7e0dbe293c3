package session

import (
	"context"
	"net/http"
	"time"

	appsession "laekning/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	log "github.com/sirupsen/logrus"
)

const (
	CookieName = "laekning_session"
	idKey      = "_sid"
)

// 値をすべて署名+暗号化したcookieに持つProvider
type CookieProvider struct {
	store *sessions.CookieStore
}

// DI
func NewCookieProvider(secret string, idle time.Duration, secure bool) (*CookieProvider, error) {
	hashKey, blockKey, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}
	return &CookieProvider{store: newGorillaStore(hashKey, blockKey, idle, secure)}, nil
}

func newGorillaStore(hashKey, blockKey []byte, idle time.Duration, secure bool) *sessions.CookieStore {
	cs := sessions.NewCookieStore(hashKey, blockKey)
	cs.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	//無操作タイムアウト（保存のたびに延長）
	cs.MaxAge(int(idle.Seconds()))
	return cs
}

func (p *CookieProvider) Open(w http.ResponseWriter, r *http.Request) (appsession.Handle, error) {
	sess, err := p.store.Get(r, CookieName)
	if err != nil {
		//改ざん・期限切れ・キー変更などは新しいセッションとして扱う
		log.WithField("component", "session").WithError(err).Debug("discard undecodable session cookie")
	}
	return &cookieHandle{sess: sess, w: w, r: r}, nil
}

type cookieHandle struct {
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

func (h *cookieHandle) ID() string {
	return ensureID(h.sess)
}

func (h *cookieHandle) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := h.sess.Values[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

func (h *cookieHandle) Set(_ context.Context, key, value string) error {
	h.sess.Values[key] = value
	return nil
}

func (h *cookieHandle) Delete(_ context.Context, key string) error {
	delete(h.sess.Values, key)
	return nil
}

func (h *cookieHandle) Commit() error {
	ensureID(h.sess)
	return h.sess.Save(h.r, h.w)
}

// ロック用のIDが無ければ振る
func ensureID(sess *sessions.Session) string {
	if id, ok := sess.Values[idKey].(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	sess.Values[idKey] = id
	return id
}
