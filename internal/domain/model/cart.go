package model

import "github.com/shopspring/decimal"

// カートの1行（商品と数量）
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// 1セッション分のカート。
// 同じ商品IDの行は常に1つだけ。並び順は最初に追加された順。
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// 既存行があれば数量を加算、無ければ末尾に追加
func (c *Cart) AddItem(product Product, quantity int) {
	for i := range c.Lines {
		if c.Lines[i].Product.ID != product.ID {
			continue
		}
		c.Lines[i].Quantity += quantity
		// 0以下になった行は残さない
		if c.Lines[i].Quantity <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		}
		return
	}

	if quantity <= 0 {
		return
	}
	c.Lines = append(c.Lines, CartLine{Product: product, Quantity: quantity})
}

// 同じ商品IDの行をすべて削除。無ければ何もしない
func (c *Cart) RemoveLine(product Product) {
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if l.Product.ID != product.ID {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
}

// 価格×数量の合計（decimalで誤差なし）
func (c Cart) ComputeTotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func (c *Cart) Clear() {
	c.Lines = nil
}

// 数量の合計（カートサマリー用）
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
