package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"laekning/internal/domain/model"
	repo "laekning/internal/repository"
	"laekning/internal/session"
	"laekning/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCartUsecase_AddItem_NotFound(t *testing.T) {
	pRepo := new(ProductRepoMock)
	uc := usecase.NewCartUsecase(pRepo, session.NewKeyedMutex(), nil)
	store := newMemStore("s1")

	pRepo.On("FindByID", mock.Anything, int64(42)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.AddItem(context.Background(), store, 42)
	assertErrContains(t, err, "not found")

	//カートは作られない
	_, ok, _ := store.Get(context.Background(), session.CartKey)
	assert.False(t, ok)
}

func TestCartUsecase_AddItem_InvalidID(t *testing.T) {
	uc := usecase.NewCartUsecase(new(ProductRepoMock), session.NewKeyedMutex(), nil)

	_, err := uc.AddItem(context.Background(), newMemStore("s1"), 0)
	assertErrContains(t, err, "invalid product id")
}

func TestCartUsecase_AddRemove(t *testing.T) {
	ctx := context.Background()
	pRepo := new(ProductRepoMock)
	uc := usecase.NewCartUsecase(pRepo, session.NewKeyedMutex(), nil)
	store := newMemStore("s1")

	p1 := model.Product{ID: 1, Name: "P1", Price: decimal.NewFromInt(100)}
	p2 := model.Product{ID: 2, Name: "P2", Price: decimal.NewFromInt(50)}
	pRepo.On("FindByID", mock.Anything, int64(1)).Return(p1, nil)
	pRepo.On("FindByID", mock.Anything, int64(2)).Return(p2, nil)
	pRepo.On("FindByIDs", mock.Anything, mock.Anything).Return([]model.Product{p1, p2}, nil)

	_, err := uc.AddItem(ctx, store, 1)
	assert.NoError(t, err)
	_, err = uc.AddItem(ctx, store, 1)
	assert.NoError(t, err)
	sum, err := uc.AddItem(ctx, store, 2)
	assert.NoError(t, err)

	//同じ商品は1行にまとまる
	assert.Len(t, sum.Lines, 2)
	assert.Equal(t, 3, sum.ItemCount)
	assert.True(t, decimal.NewFromInt(250).Equal(sum.Total))

	sum, err = uc.RemoveLine(ctx, store, 1)
	assert.NoError(t, err)
	assert.Len(t, sum.Lines, 1)
	assert.True(t, decimal.NewFromInt(50).Equal(sum.Total))

	//別リクエストでも同じ内容が読める
	got, err := uc.Get(ctx, store)
	assert.NoError(t, err)
	assert.Equal(t, 1, got.ItemCount)
}

func TestCartUsecase_Get_Empty(t *testing.T) {
	uc := usecase.NewCartUsecase(new(ProductRepoMock), session.NewKeyedMutex(), nil)

	got, err := uc.Get(context.Background(), newMemStore("s1"))
	assert.NoError(t, err)
	assert.NotNil(t, got.Lines)
	assert.Empty(t, got.Lines)
	assert.True(t, decimal.Zero.Equal(got.Total))
}

func TestCartUsecase_ManyProductsStayInSession(t *testing.T) {
	ctx := context.Background()
	pRepo := new(ProductRepoMock)
	uc := usecase.NewCartUsecase(pRepo, session.NewKeyedMutex(), nil)
	store := newMemStore("s1")

	var catalog []model.Product
	for i := int64(1); i <= 12; i++ {
		p := model.Product{ID: i, Name: "P", Description: strings.Repeat("d", 250), Price: decimal.NewFromInt(i)}
		catalog = append(catalog, p)
		pRepo.On("FindByID", mock.Anything, i).Return(p, nil)
	}
	pRepo.On("FindByIDs", mock.Anything, mock.Anything).Return(catalog, nil)

	for i := int64(1); i <= 12; i++ {
		_, err := uc.AddItem(ctx, store, i)
		assert.NoError(t, err)
	}

	got, err := uc.Get(ctx, store)
	assert.NoError(t, err)
	assert.Len(t, got.Lines, 12)
	//説明文はセッションに入らない
	raw, _, _ := store.Get(ctx, session.CartKey)
	assert.NotContains(t, raw, "ddd")
}

func TestCartUsecase_Get_CatalogFailure(t *testing.T) {
	ctx := context.Background()
	pRepo := new(ProductRepoMock)
	uc := usecase.NewCartUsecase(pRepo, session.NewKeyedMutex(), nil)
	store := newMemStore("s1")
	assert.NoError(t, store.Set(ctx, session.CartKey, `{"lines":[{"product_id":1,"quantity":1}]}`))

	pRepo.On("FindByIDs", mock.Anything, []int64{1}).Return(nil, errors.New("db down"))

	_, err := uc.Get(ctx, store)
	assertErrContains(t, err, "db error")
}
