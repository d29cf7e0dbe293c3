package session

import (
	"context"
	"encoding/json"
	"net/http"
)

// ブラウザセッション単位のkey-valueストア。
// 実装は internal/infra/session（cookie / redis）。
type Store interface {
	// セッションの識別子（ロック用）
	ID() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// 1リクエスト分のセッション。Commitでcookie等をレスポンスに書く
type Handle interface {
	Store
	Commit() error
}

// リクエストごとにセッションを開く
type Provider interface {
	Open(w http.ResponseWriter, r *http.Request) (Handle, error)
}

// GetJSONは壊れた値や読み取りエラーを「無い」として扱う
func GetJSON(ctx context.Context, s Store, key string, dst any) bool {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false
	}
	return true
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, string(b))
}
