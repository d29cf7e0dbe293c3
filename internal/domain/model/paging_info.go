package model

import (
	"encoding/json"
	"errors"
)

var ErrInvalidPageSize = errors.New("items per page must be >= 1")

// ページング情報。TotalPagesは保存せず毎回計算する
type PagingInfo struct {
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
	CurrentPage  int `json:"current_page"`
}

// ページサイズ0を受け付けない
func NewPagingInfo(totalItems, itemsPerPage, currentPage int) (PagingInfo, error) {
	if itemsPerPage < 1 {
		return PagingInfo{}, ErrInvalidPageSize
	}
	return PagingInfo{
		TotalItems:   totalItems,
		ItemsPerPage: itemsPerPage,
		CurrentPage:  currentPage,
	}, nil
}

// ceil(TotalItems / ItemsPerPage)
func (p PagingInfo) TotalPages() int {
	if p.ItemsPerPage <= 0 || p.TotalItems <= 0 {
		return 0
	}
	return (p.TotalItems + p.ItemsPerPage - 1) / p.ItemsPerPage
}

func (p PagingInfo) MarshalJSON() ([]byte, error) {
	type plain PagingInfo
	return json.Marshal(struct {
		plain
		TotalPages int `json:"total_pages"`
	}{plain: plain(p), TotalPages: p.TotalPages()})
}
