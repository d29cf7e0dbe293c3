package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	appsession "laekning/internal/session"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// cookieにはセッションIDだけを持ち、値はRedisに置くProvider。
// キーは session:<id>:<key>、TTLは無操作タイムアウト（アクセスで延長）。
type RedisProvider struct {
	rdb  *redis.Client
	ids  *sessions.CookieStore
	idle time.Duration
}

// DI
func NewRedisProvider(rdb *redis.Client, secret string, idle time.Duration, secure bool) (*RedisProvider, error) {
	hashKey, blockKey, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}
	return &RedisProvider{
		rdb:  rdb,
		ids:  newGorillaStore(hashKey, blockKey, idle, secure),
		idle: idle,
	}, nil
}

func (p *RedisProvider) Open(w http.ResponseWriter, r *http.Request) (appsession.Handle, error) {
	sess, err := p.ids.Get(r, CookieName)
	if err != nil {
		log.WithField("component", "session").WithError(err).Debug("discard undecodable session cookie")
	}
	id := ensureID(sess)
	return &redisHandle{p: p, id: id, sess: sess, w: w, r: r}, nil
}

type redisHandle struct {
	p    *RedisProvider
	id   string
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

func redisKey(id, key string) string {
	return fmt.Sprintf("session:%s:%s", id, key)
}

func (h *redisHandle) ID() string {
	return h.id
}

func (h *redisHandle) Get(ctx context.Context, key string) (string, bool, error) {
	//読むたびにTTLを延長
	v, err := h.p.rdb.GetEx(ctx, redisKey(h.id, key), h.p.idle).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (h *redisHandle) Set(ctx context.Context, key, value string) error {
	return h.p.rdb.Set(ctx, redisKey(h.id, key), value, h.p.idle).Err()
}

func (h *redisHandle) Delete(ctx context.Context, key string) error {
	return h.p.rdb.Del(ctx, redisKey(h.id, key)).Err()
}

// IDのcookieを書き直して期限を延ばす
func (h *redisHandle) Commit() error {
	return h.sess.Save(h.r, h.w)
}
