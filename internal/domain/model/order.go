package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文。Linesは注文時点のカートのコピーで、以後カートとは独立。
type Order struct {
	ID    int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Lines []OrderLine `gorm:"foreignKey:OrderID" json:"lines"`

	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Line1   string `gorm:"type:varchar(255);not null" json:"line1"`
	Line2   string `gorm:"type:varchar(255)" json:"line2"`
	Line3   string `gorm:"type:varchar(255)" json:"line3"`
	City    string `gorm:"type:varchar(255);not null" json:"city"`
	State   string `gorm:"type:varchar(255);not null" json:"state"`
	Zip     string `gorm:"type:varchar(20)" json:"zip"`
	Country string `gorm:"type:varchar(100);not null" json:"country"`

	GiftWrap  bool      `gorm:"not null;default:false" json:"gift_wrap"`
	Shipped   bool      `gorm:"not null;default:false;index" json:"shipped"`
	OrderDate time.Time `gorm:"not null;index" json:"order_date"`
}

// 注文明細。商品は参照のみ（保存時に商品行は作らない）
type OrderLine struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64   `gorm:"not null;index" json:"order_id"`
	ProductID int64   `gorm:"not null;index" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int     `gorm:"not null" json:"quantity"`
}

// カートの行を値でコピーする
func NewOrderLines(c Cart) []OrderLine {
	lines := make([]OrderLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, OrderLine{
			ProductID: l.Product.ID,
			Product:   l.Product,
			Quantity:  l.Quantity,
		})
	}
	return lines
}

func (o Order) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
