package repository

import (
	"context"
	"errors"

	"laekning/internal/domain/model"
	repo "laekning/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Lines.Product").
		Where("id = ?", orderID).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// 明細の商品は既存の行として扱い、INSERTしない
func (r *OrderGormRepository) Save(ctx context.Context, order *model.Order) error {
	db := r.db.WithContext(ctx).Omit("Lines.Product")
	if order.ID == 0 {
		return db.Create(order).Error
	}
	return db.Save(order).Error
}

func (r *OrderGormRepository) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//発送済みかどうかで絞り込み
	if f.Shipped != nil {
		q = q.Where("shipped = ?", *f.Shipped)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Preload("Lines.Product").
		Order("id desc").Limit(f.Limit).Offset(offset).
		Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) MarkShipped(ctx context.Context, orderID int64) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("shipped", true)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 直近の注文明細から商品の説明を重複なしで拾う
func (r *OrderGormRepository) RecentProductDescriptions(ctx context.Context, n int) ([]string, error) {
	type row struct {
		Description string
		LastLineID  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("order_lines AS ol").
		Select("p.description AS description, MAX(ol.id) AS last_line_id").
		Joins("JOIN products AS p ON p.id = ol.product_id").
		Group("p.description").
		Order("last_line_id desc").
		Limit(n).
		Scan(&rows).Error
	if err != nil {
		return []string{}, err
	}

	descs := make([]string, 0, len(rows))
	for _, r := range rows {
		descs = append(descs, r.Description)
	}
	return descs, nil
}
