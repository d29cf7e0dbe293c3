package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 入力エラー。フォームと同じ画面に項目ごとのメッセージを返す
// キー "" はフォーム全体へのエラー
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d: validation failed (%d fields)", http.StatusBadRequest, len(e.Fields))
}

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// 外部サービス（AI/OCR/Blob）の失敗
func upstreamError() error {
	return NewHTTPError(http.StatusBadGateway, "upstream error")
}

func dbError() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
