package usecase

import (
	"context"
	"io"
	"time"

	"laekning/internal/domain/model"
)

// チャット補完（ストリームを最後まで連結した結果を返す）
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// OCR。最初のドキュメントのフィールド名 -> 内容
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, documentURL string) (map[string]string, bool, error)
}

type BlobStorage interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, name string) error
}

// 監査/テレメトリ用。結果を待って正否を決めることはしない
type EventPublisher interface {
	Publish(ctx context.Context, key string, ev model.Event) error
}

// 項目名 -> メッセージ。空なら問題なし
type OrderValidator interface {
	ValidateOrder(o model.Order) map[string]string
}

type ProductValidator interface {
	ValidateProduct(p model.Product) map[string]string
}

// 時刻（テスト用に差し替え）
type Clock interface {
	Now() time.Time
}

// ID採番
type IDGenerator interface {
	NewID() string
}
