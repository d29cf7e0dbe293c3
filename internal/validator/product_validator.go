package validator

import (
	"laekning/internal/domain/model"
	"laekning/internal/usecase"

	"github.com/shopspring/decimal"
)

const (
	FieldDescription = "Description"
	FieldCategory    = "Category"
	FieldPrice       = "Price"
)

// products.price は decimal(8,2)
const PriceScale = 2

var MaxPrice = decimal.RequireFromString("999999.99")

type productValidator struct{}

func NewProductValidator() usecase.ProductValidator {
	return &productValidator{}
}

// 管理画面の商品フォーム
func (v *productValidator) ValidateProduct(p model.Product) map[string]string {
	fields := map[string]string{}
	require(fields, FieldName, p.Name, "Please enter a product name")
	require(fields, FieldDescription, p.Description, "Please enter a description")
	require(fields, FieldCategory, p.Category, "Please specify a category")

	// 価格は正の値で、列に丸めずに入るもの
	switch {
	case !p.Price.IsPositive():
		fields[FieldPrice] = "Please enter a positive price"
	case !p.Price.Equal(p.Price.Truncate(PriceScale)):
		fields[FieldPrice] = "Please enter a price with at most 2 decimal places"
	case p.Price.GreaterThan(MaxPrice):
		fields[FieldPrice] = "Please enter a price of at most 999999.99"
	}
	return fields
}
