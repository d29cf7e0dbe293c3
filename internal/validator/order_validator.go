package validator

import (
	"strings"

	"laekning/internal/domain/model"
	"laekning/internal/usecase"
)

// チェックアウトフォームの項目名（handlerのフォーム名と同じ）
const (
	FieldName    = "Name"
	FieldLine1   = "Line1"
	FieldCity    = "City"
	FieldState   = "State"
	FieldCountry = "Country"
)

type orderValidator struct{}

// Usecaseは interface を依存注入
func NewOrderValidator() usecase.OrderValidator {
	return &orderValidator{}
}

// 必須項目の空チェック。Line2/Line3/Zip/GiftWrapは任意
func (v *orderValidator) ValidateOrder(o model.Order) map[string]string {
	fields := map[string]string{}
	require(fields, FieldName, o.Name, "Please enter a name")
	require(fields, FieldLine1, o.Line1, "Please enter the first address line")
	require(fields, FieldCity, o.City, "Please enter a city name")
	require(fields, FieldState, o.State, "Please enter a state name")
	require(fields, FieldCountry, o.Country, "Please enter a country name")
	return fields
}

func require(fields map[string]string, key, value, msg string) {
	if strings.TrimSpace(value) == "" {
		fields[key] = msg
	}
}
