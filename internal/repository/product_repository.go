package repository

import (
	"context"
	"errors"

	"laekning/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// 注文から参照されている等で消せない
	ErrConflict = errors.New("conflict")
)

// カテゴリ一覧検索
type ProductListQuery struct {
	Category string
	Page     int
	Limit    int
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	// category一致・id昇順・ページング。totalは絞り込み後の件数
	ListByCategory(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// セッションのカート復元用。見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	// 重複なし・昇順
	Categories(ctx context.Context) ([]string, error)

	// AI機能用
	ListNames(ctx context.Context) ([]string, error)
	FindByNames(ctx context.Context, names []string, limit int) ([]model.Product, error)
	// name または description の部分一致（大文字小文字無視）
	ExistsLike(ctx context.Context, term string) (bool, error)
	RandomDescriptions(ctx context.Context, n int) ([]string, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	Delete(ctx context.Context, id int64) error
}
