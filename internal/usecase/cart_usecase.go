package usecase

import (
	"context"
	"net/http"

	"laekning/internal/domain/model"
	"laekning/internal/metrics"
	repo "laekning/internal/repository"
	"laekning/internal/session"

	"github.com/shopspring/decimal"
)

// CartUsecase はセッションに保存するカートの操作。
// 同じセッションへの同時リクエストはKeyedMutexで順番に処理する。
type CartUsecase struct {
	productRepo repo.ProductRepository
	locks       *session.KeyedMutex
	metrics     *metrics.Metrics
}

// DI
func NewCartUsecase(productRepo repo.ProductRepository, locks *session.KeyedMutex, m *metrics.Metrics) *CartUsecase {
	return &CartUsecase{productRepo: productRepo, locks: locks, metrics: m}
}

type CartSummary struct {
	Lines     []model.CartLine `json:"lines"`
	Total     decimal.Decimal  `json:"total"`
	ItemCount int              `json:"item_count"`
}

func toCartSummary(c model.Cart) CartSummary {
	lines := c.Lines
	if lines == nil {
		lines = []model.CartLine{}
	}
	return CartSummary{
		Lines:     lines,
		Total:     c.ComputeTotalValue(),
		ItemCount: c.ItemCount(),
	}
}

func (u *CartUsecase) Get(ctx context.Context, store session.Store) (CartSummary, error) {
	sc, err := session.LoadCart(ctx, store, u.productRepo)
	if err != nil {
		return CartSummary{}, dbError()
	}
	return toCartSummary(sc.Cart()), nil
}

// 商品を1つ追加
func (u *CartUsecase) AddItem(ctx context.Context, store session.Store, productID int64) (CartSummary, error) {
	if productID <= 0 {
		return CartSummary{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return CartSummary{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartSummary{}, dbError()
	}

	//読み込み→変更→保存をセッション単位で直列化
	unlock := u.locks.Lock(store.ID())
	defer unlock()

	sc, err := session.LoadCart(ctx, store, u.productRepo)
	if err != nil {
		return CartSummary{}, dbError()
	}
	sc.AddItem(ctx, p, 1)
	u.metrics.CartMutated("add")

	return toCartSummary(sc.Cart()), nil
}

// 行を削除。無ければ何もしない
func (u *CartUsecase) RemoveLine(ctx context.Context, store session.Store, productID int64) (CartSummary, error) {
	if productID <= 0 {
		return CartSummary{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	unlock := u.locks.Lock(store.ID())
	defer unlock()

	sc, err := session.LoadCart(ctx, store, u.productRepo)
	if err != nil {
		return CartSummary{}, dbError()
	}
	sc.RemoveLine(ctx, model.Product{ID: productID})
	u.metrics.CartMutated("remove")

	return toCartSummary(sc.Cart()), nil
}
