package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"laekning/internal/domain/model"
	infraRepo "laekning/internal/infra/repository"
	repo "laekning/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 実DBが必要。TEST_DATABASE_DSN が無ければskip
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.Product{}, &model.Order{}, &model.OrderLine{}, &model.AuditLog{}))

	truncate := func() {
		require.NoError(t, gdb.Exec("TRUNCATE order_lines, orders, products, audit_logs RESTART IDENTITY CASCADE").Error)
	}
	truncate()
	t.Cleanup(truncate)
	return gdb
}

func seedProducts(t *testing.T, r *infraRepo.ProductGormRepository) []model.Product {
	t.Helper()
	ctx := context.Background()
	in := []model.Product{
		{Name: "Aspirin", Description: "Pain relief", Category: "Pain", Price: decimal.RequireFromString("9.99")},
		{Name: "Ibuprofen", Description: "Anti inflammatory", Category: "Pain", Price: decimal.RequireFromString("4.50")},
		{Name: "Vitamin C", Description: "Immune support", Category: "Vitamins", Price: decimal.RequireFromString("12.00")},
	}
	out := make([]model.Product, 0, len(in))
	for _, p := range in {
		created, err := r.Create(ctx, p)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestProductGormRepository_Queries(t *testing.T) {
	gdb := openTestDB(t)
	r := infraRepo.NewProductGormRepository(gdb)
	ps := seedProducts(t, r)
	ctx := context.Background()

	items, total, err := r.ListByCategory(ctx, repo.ProductListQuery{Category: "Pain", Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Ibuprofen", items[0].Name)

	cats, err := r.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pain", "Vitamins"}, cats)

	found, err := r.FindByNames(ctx, []string{"aspirin", "VITAMIN C", "nope"}, 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, ps[0].ID, found[0].ID)

	ok, err := r.ExistsLike(ctx, "inflamm")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ExistsLike(ctx, "antibiotic")
	require.NoError(t, err)
	assert.False(t, ok)

	byID, err := r.FindByIDs(ctx, []int64{ps[2].ID, 999})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Vitamin C", byID[0].Name)

	//ワイルドカードは文字として比較する
	for _, term := range []string{"%", "_", "a%b"} {
		ok, err = r.ExistsLike(ctx, term)
		require.NoError(t, err)
		assert.False(t, ok, term)
	}

	descs, err := r.RandomDescriptions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, descs, 2)

	_, err = r.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderGormRepository_SaveAndDeleteConflict(t *testing.T) {
	gdb := openTestDB(t)
	products := infraRepo.NewProductGormRepository(gdb)
	orders := infraRepo.NewOrderGormRepository(gdb)
	ps := seedProducts(t, products)
	ctx := context.Background()

	o := &model.Order{
		Name: "Ada", Line1: "1 Main", City: "Oslo", State: "Oslo", Country: "NO",
		OrderDate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Lines: []model.OrderLine{
			{ProductID: ps[0].ID, Product: ps[0], Quantity: 2},
			{ProductID: ps[2].ID, Product: ps[2], Quantity: 1},
		},
	}
	require.NoError(t, orders.Save(ctx, o))
	require.NotZero(t, o.ID)

	got, err := orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Aspirin", got.Lines[0].Product.Name)
	assert.True(t, decimal.RequireFromString("31.98").Equal(got.TotalValue()))

	descs, err := orders.RecentProductDescriptions(ctx, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Pain relief", "Immune support"}, descs)

	//注文から参照されている商品は消せない
	assert.ErrorIs(t, products.Delete(ctx, ps[0].ID), repo.ErrConflict)
	assert.NoError(t, products.Delete(ctx, ps[1].ID))

	require.NoError(t, orders.MarkShipped(ctx, o.ID))
	shipped := true
	list, total, err := orders.List(ctx, repo.OrderListFilter{Page: 1, Limit: 10, Shipped: &shipped})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, orders.MarkShipped(ctx, 999), repo.ErrNotFound)
}

func TestTxManagerGorm_RollsBackAuditAndProduct(t *testing.T) {
	gdb := openTestDB(t)
	tm := infraRepo.NewTxManagerGorm(gdb)
	audit := infraRepo.NewAuditLogGormRepository(gdb)
	ctx := context.Background()

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{Name: "X", Description: "x", Category: "c", Price: decimal.NewFromInt(1)})
		if err != nil {
			return err
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Actor: "admin-1", Action: model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct, ResourceID: p.ID, CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return repo.ErrConflict
	})
	assert.ErrorIs(t, err, repo.ErrConflict)

	logs, total, err := audit.List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Zero(t, total)

	names, err := infraRepo.NewProductGormRepository(gdb).ListNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAuditLogGormRepository_ListFilters(t *testing.T) {
	gdb := openTestDB(t)
	audit := infraRepo.NewAuditLogGormRepository(gdb)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, a := range []model.AuditAction{
		model.AuditActionCreateProduct,
		model.AuditActionShipOrder,
		model.AuditActionShipOrder,
	} {
		require.NoError(t, audit.Create(ctx, model.AuditLog{
			Actor: "admin-1", Action: a, ResourceType: a.ResourceType(),
			ResourceID: int64(i + 1), CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	ship := model.AuditActionShipOrder
	logs, total, err := audit.List(ctx, repo.AuditLogFilter{Action: &ship, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 1)
	//新しい順
	assert.Equal(t, int64(3), logs[0].ResourceID)

	from, to := base, base.Add(2*time.Hour)
	logs, total, err = audit.List(ctx, repo.AuditLogFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, logs, 2)
}
