package repository

import (
	"context"
	"time"

	"laekning/internal/domain/model"
)

const (
	DefaultAuditLogLimit = 50
	MaxAuditLogLimit     = 200
)

// AuditLogFilter は /admin/audit-logs の絞り込み。nil の項目は条件にしない。
// Action と ResourceType は model 側の Valid() を通った値だけを入れる。
type AuditLogFilter struct {
	Actor        *string
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// 範囲外のlimit/offsetを既定値に寄せる
func (f AuditLogFilter) Window() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > MaxAuditLogLimit {
		limit = DefaultAuditLogLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type AuditLogRepository interface {
	//管理者操作と同じトランザクションで書く
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順。totalはlimit/offset前の件数
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}
