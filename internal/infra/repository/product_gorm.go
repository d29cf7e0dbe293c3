package repository

import (
	"context"
	"errors"
	"strings"

	"laekning/internal/domain/model"
	repo "laekning/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// カテゴリで絞り込み、id昇順でページングして返す。
func (r *ProductGormRepository) ListByCategory(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category = ?", q.Category)

	//total（絞り込み後の件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Order("id asc").Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// まとめて取得（順序は問わない）
func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// ナビゲーション用のカテゴリ一覧
func (r *ProductGormRepository) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Distinct("category").
		Order("category asc").
		Pluck("category", &cats).Error; err != nil {
		return []string{}, err
	}
	return cats, nil
}

// プロンプトに載せる全商品名
func (r *ProductGormRepository) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Order("id asc").
		Pluck("name", &names).Error; err != nil {
		return []string{}, err
	}
	return names, nil
}

// 名前が一致する商品（大文字小文字無視）。limit<=0なら全件
func (r *ProductGormRepository) FindByNames(ctx context.Context, names []string, limit int) ([]model.Product, error) {
	if len(names) == 0 {
		return []model.Product{}, nil
	}
	lower := make([]string, 0, len(names))
	for _, n := range names {
		lower = append(lower, strings.ToLower(n))
	}

	tx := r.db.WithContext(ctx).
		Where("LOWER(name) IN ?", lower).
		Order("id asc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var products []model.Product
	if err := tx.Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

// 在庫確認。name/descriptionの部分一致
func (r *ProductGormRepository) ExistsLike(ctx context.Context, term string) (bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return false, nil
	}
	like := "%" + escapeLike(term) + "%"

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where(`name ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\'`, like, like).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// 利用者の入力中の % と _ を文字として扱う
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// 注文履歴がない時のフォールバック
func (r *ProductGormRepository) RandomDescriptions(ctx context.Context, n int) ([]string, error) {
	var descs []string
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Order("RANDOM()").
		Limit(n).
		Pluck("description", &descs).Error; err != nil {
		return []string{}, err
	}
	return descs, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = 0
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"category":    p.Category,
		"price":       p.Price,
		"image":       p.Image,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除。注文明細から参照されていればErrConflict
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		return repo.ErrConflict
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
