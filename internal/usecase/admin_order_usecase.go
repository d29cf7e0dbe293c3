package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"laekning/internal/domain/model"
	repo "laekning/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	auditRepo repo.AuditLogRepository
	clock     Clock
}

func NewAdminOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, auditRepo repo.AuditLogRepository, clock Clock) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, auditRepo: auditRepo, clock: clock}
}

type AdminOrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文一覧（shippedで絞り込み可）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.OrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	orders, total, err := u.orders.List(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, dbError()
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return AdminOrderListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// 発送済みにする。すでに発送済みなら何もしない
func (u *AdminOrderUsecase) MarkShipped(ctx context.Context, actor string, orderID int64) error {
	if strings.TrimSpace(actor) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError()
		}

		// すでに同じなら何もしない（200）
		if o.Shipped {
			return nil
		}

		if err := r.Orders().MarkShipped(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return dbError()
		}

		// 監査ログ（SHIP_ORDER）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Actor:        actor,
			Action:       model.AuditActionShipOrder,
			ResourceType: model.AuditActionShipOrder.ResourceType(),
			ResourceID:   orderID,
			BeforeJSON:   `{"shipped":false}`,
			AfterJSON:    `{"shipped":true}`,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return dbError()
		}

		return nil
	})
}

type AuditLogListOutput struct {
	Items  []model.AuditLog `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// 監査ログ一覧。知らないaction/resource_typeや逆転した期間は400
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) (AuditLogListOutput, error) {
	if f.Limit < 0 || f.Limit > repo.MaxAuditLogLimit {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	if f.Action != nil && !f.Action.Valid() {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
	}
	if f.ResourceType != nil && !f.ResourceType.Valid() {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}

	logs, total, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, dbError()
	}
	limit, offset := f.Window()
	return AuditLogListOutput{Items: logs, Total: total, Limit: limit, Offset: offset}, nil
}

// 期間パラメータでtime.Timeが必要なら、handlerでtime.Parseしてここに入れる
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
