package model

const (
	ChatRoleUser = "user"
	ChatRoleBot  = "bot"
)

// ヘルスアシスタントの会話履歴1件
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	ProductID *int64 `json:"product_id,omitempty"`
}
