package model

import "github.com/shopspring/decimal"

// 商品。IDが0なら未保存。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"price"`
	Image       *string         `gorm:"type:varchar(512)" json:"image,omitempty"`
}
