package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"laekning/internal/domain/model"
	repo "laekning/internal/repository"

	"github.com/shopspring/decimal"
)

// 管理画面の商品CRUD。変更は監査ログと同じトランザクションで書く
type AdminProductUsecase struct {
	tx        repo.TransactionManager
	validator ProductValidator
	clock     Clock
}

// DI
func NewAdminProductUsecase(tx repo.TransactionManager, validator ProductValidator, clock Clock) *AdminProductUsecase {
	return &AdminProductUsecase{tx: tx, validator: validator, clock: clock}
}

type AdminProductInput struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Image       *string
}

func (in AdminProductInput) toProduct(id int64) model.Product {
	return model.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Image:       in.Image,
	}
}

func (u *AdminProductUsecase) validate(p model.Product) error {
	if fields := u.validator.ValidateProduct(p); len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// 商品の作成
func (u *AdminProductUsecase) Create(ctx context.Context, actor string, in AdminProductInput) (int64, error) {
	if strings.TrimSpace(actor) == "" {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	p := in.toProduct(0)
	if err := u.validate(p); err != nil {
		return 0, err
	}

	var id int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		created, err := r.Products().Create(ctx, p)
		if err != nil {
			return dbError()
		}
		id = created.ID

		return u.audit(ctx, r, actor, model.AuditActionCreateProduct, created.ID, nil, &created)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// 商品の更新
func (u *AdminProductUsecase) Update(ctx context.Context, actor string, productID int64, in AdminProductInput) error {
	if strings.TrimSpace(actor) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p := in.toProduct(productID)
	if err := u.validate(p); err != nil {
		return err
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前（before）
		before, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError()
		}

		if err := r.Products().Update(ctx, p); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return dbError()
		}

		return u.audit(ctx, r, actor, model.AuditActionUpdateProduct, productID, &before, &p)
	})
}

// 商品削除。注文から参照されていれば409
func (u *AdminProductUsecase) Delete(ctx context.Context, actor string, productID int64) error {
	if strings.TrimSpace(actor) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError()
		}

		err = r.Products().Delete(ctx, productID)
		switch err {
		case nil:
		case repo.ErrNotFound:
			return NewHTTPError(http.StatusNotFound, "not found")
		case repo.ErrConflict:
			return NewHTTPError(http.StatusConflict, "product is referenced by orders")
		default:
			return dbError()
		}

		return u.audit(ctx, r, actor, model.AuditActionDeleteProduct, productID, &before, nil)
	})
}

// 監査ログを作成
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す
func (u *AdminProductUsecase) audit(ctx context.Context, r repo.TxRepos, actor string, action model.AuditAction, id int64, before, after *model.Product) error {
	if err := r.AuditLogs().Create(ctx, model.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: action.ResourceType(),
		ResourceID:   id,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return dbError()
	}
	return nil
}

func toJSON(p *model.Product) string {
	if p == nil {
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}
