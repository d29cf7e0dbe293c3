package session

import "sync"

// KeyedMutex はセッションIDごとの排他ロック。
// 同じセッションへの同時リクエストで、カートの読み込み→変更→保存が上書きし合わないようにする。
// 直列化できるのは読み込みをロック内でサーバ側ストアから行う redis バックエンドだけ。
// cookie バックエンドは各リクエストが自分のcookieを読むので後勝ちになる。
// プロセス内のみ有効（複数インスタンス間は守れない）。
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock は key のロックを取り、解放関数を返す。
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// 保持中のキー数
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
