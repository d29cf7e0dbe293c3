package repository

import (
	"context"

	"laekning/internal/domain/model"
)

type OrderListFilter struct {
	Page    int
	Limit   int
	Shipped *bool
}

type OrderRepository interface {
	// Lines と Lines.Product を含めて返す
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// ID==0なら新規作成、それ以外は更新。商品行は作らない
	Save(ctx context.Context, order *model.Order) error
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	MarkShipped(ctx context.Context, orderID int64) error

	//新しい注文から順に、購入された商品の説明を重複なしでn件
	RecentProductDescriptions(ctx context.Context, n int) ([]string, error)
}
