package usecase

import (
	"context"
	"strings"

	"laekning/internal/domain/model"
	"laekning/internal/metrics"
	repo "laekning/internal/repository"

	log "github.com/sirupsen/logrus"
)

const (
	// 購入履歴として見る件数
	recentPurchaseCount = 4
	maxRecommendations  = 5
)

type RecommendationsOutput struct {
	PurchasedProductDescriptions []string        `json:"purchased_product_descriptions"`
	RecommendedProducts          []model.Product `json:"recommended_products"`
}

// トップページ（カテゴリ未指定）のおすすめ
type RecommendationsUsecase struct {
	products repo.ProductRepository
	orders   repo.OrderRepository
	chat     ChatCompleter
	metrics  *metrics.Metrics
}

func NewRecommendationsUsecase(products repo.ProductRepository, orders repo.OrderRepository, chat ChatCompleter, m *metrics.Metrics) *RecommendationsUsecase {
	return &RecommendationsUsecase{products: products, orders: orders, chat: chat, metrics: m}
}

func (u *RecommendationsUsecase) Get(ctx context.Context) (RecommendationsOutput, error) {
	out := RecommendationsOutput{
		PurchasedProductDescriptions: []string{},
		RecommendedProducts:          []model.Product{},
	}

	//直近の注文の商品説明。注文が無ければランダムな商品で代用
	purchased, err := u.orders.RecentProductDescriptions(ctx, recentPurchaseCount)
	if err != nil {
		return out, dbError()
	}
	if len(purchased) == 0 {
		purchased, err = u.products.RandomDescriptions(ctx, recentPurchaseCount)
		if err != nil {
			return out, dbError()
		}
	}
	out.PurchasedProductDescriptions = purchased

	names, err := u.products.ListNames(ctx)
	if err != nil {
		return out, dbError()
	}
	if len(purchased) == 0 || len(names) == 0 {
		return out, nil
	}

	text, err := u.chat.Complete(ctx, recommendationPrompt(purchased, names), strings.Join(purchased, ", "))
	if err != nil {
		u.metrics.UpstreamError("chat")
		log.WithField("component", "recommendations").WithError(err).Error("chat completion failed")
		return out, upstreamError()
	}

	recommended, err := u.products.FindByNames(ctx, exactNames(SplitNames(text), names), maxRecommendations)
	if err != nil {
		return out, dbError()
	}
	out.RecommendedProducts = recommended
	return out, nil
}

// モデルの出力のうち、商品名と完全一致（大文字小文字無視）するものだけ残す
func exactNames(candidates, names []string) []string {
	known := make(map[string]string, len(names))
	for _, n := range names {
		known[toKey(n)] = n
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if n, ok := known[toKey(c)]; ok {
			out = append(out, n)
		}
	}
	return out
}
