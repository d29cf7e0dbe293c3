package usecase

import (
	"context"
	"net/http"
	"strings"

	"laekning/internal/domain/model"
	repo "laekning/internal/repository"
)

// カテゴリ未指定時の行き先
const RecommendationsPath = "/recommendations"

type ProductUsecase struct {
	productRepo repo.ProductRepository
	pageSize    int
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, pageSize int) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		pageSize:    pageSize,
	}
}

// GET /:category の入力DTO
type ListProductsInput struct {
	Category string
	Page     int
}

type ProductListOutput struct {
	Products        []model.Product  `json:"products"`
	PagingInfo      model.PagingInfo `json:"paging_info"`
	CurrentCategory string           `json:"current_category"`

	// カテゴリ未指定ならここに飛ばす（一覧は作らない）
	RedirectTo string `json:"-"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return ProductListOutput{RedirectTo: RecommendationsPath}, nil
	}
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if u.pageSize < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "invalid page size")
	}

	items, total, err := u.productRepo.ListByCategory(ctx, repo.ProductListQuery{
		Category: category,
		Page:     in.Page,
		Limit:    u.pageSize,
	})
	if err != nil {
		return ProductListOutput{}, dbError()
	}

	paging, err := model.NewPagingInfo(int(total), u.pageSize, in.Page)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "invalid page size")
	}

	return ProductListOutput{
		Products:        items,
		PagingInfo:      paging,
		CurrentCategory: category,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, dbError()
	}
	return p, nil
}

// ナビゲーションメニュー用
func (u *ProductUsecase) Categories(ctx context.Context) ([]string, error) {
	cats, err := u.productRepo.Categories(ctx)
	if err != nil {
		return []string{}, dbError()
	}
	return cats, nil
}
