package session

import (
	"context"

	"laekning/internal/domain/model"

	log "github.com/sirupsen/logrus"
)

// カートを保存するセッションキー
const CartKey = "Cart"

// ProductLookup は保存済みの商品IDから商品を引き直す
type ProductLookup interface {
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}

// セッションには商品IDと数量だけを置く（cookieの上限に収めるため）
type storedLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type storedCart struct {
	Lines []storedLine `json:"lines"`
}

// SessionCart は model.Cart を包み、変更のたびにセッションへ書き戻す。
// Storeはシリアライズしない。
type SessionCart struct {
	cart  model.Cart
	store Store
}

// LoadCart はセッションからカートを復元する。
// キーが無い・読めない・JSONが壊れている場合は空のカート。
// 商品の検索に失敗したときだけエラーを返す。カタログから消えた商品の行は落とす。
func LoadCart(ctx context.Context, store Store, products ProductLookup) (*SessionCart, error) {
	sc := &SessionCart{store: store}

	var stored storedCart
	if !GetJSON(ctx, store, CartKey, &stored) || len(stored.Lines) == 0 {
		return sc, nil
	}

	ids := make([]int64, 0, len(stored.Lines))
	for _, l := range stored.Lines {
		ids = append(ids, l.ProductID)
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	for _, l := range stored.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		sc.cart.AddItem(p, l.Quantity)
	}
	return sc, nil
}

// 現在のカート（コピー）
func (s *SessionCart) Cart() model.Cart {
	lines := make([]model.CartLine, len(s.cart.Lines))
	copy(lines, s.cart.Lines)
	return model.Cart{Lines: lines}
}

func (s *SessionCart) AddItem(ctx context.Context, p model.Product, qty int) {
	s.cart.AddItem(p, qty)
	s.persist(ctx)
}

func (s *SessionCart) RemoveLine(ctx context.Context, p model.Product) {
	s.cart.RemoveLine(p)
	s.persist(ctx)
}

// 空のカートを書くのではなくキーごと消す
func (s *SessionCart) Clear(ctx context.Context) {
	s.cart.Clear()
	if err := s.store.Delete(ctx, CartKey); err != nil {
		log.WithField("component", "session_cart").WithError(err).Warn("cart delete failed")
	}
}

func (s *SessionCart) persist(ctx context.Context) {
	stored := storedCart{Lines: make([]storedLine, 0, len(s.cart.Lines))}
	for _, l := range s.cart.Lines {
		stored.Lines = append(stored.Lines, storedLine{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	if err := SetJSON(ctx, s.store, CartKey, stored); err != nil {
		log.WithField("component", "session_cart").WithError(err).Warn("cart save failed")
	}
}
