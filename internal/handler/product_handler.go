package handler

import (
	"net/http"
	"strconv"
	"strings"

	"laekning/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// 入力エラー（フォームと同じ画面に出す項目ごとのメッセージ）
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ve, ok := usecase.AsValidationError(err); ok {
		return c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Fields: ve.Fields})
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// カテゴリ別の商品一覧と商品詳細
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録（/:category は最後に評価される）
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.list)
	e.GET("/categories", h.categories)
	e.GET("/products/:id", h.detail)
	e.GET("/:category", h.list)
	e.GET("/:category/:page", h.list)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）。"Page2" と "2" の両方を受け付ける
	page := 1
	if v := c.Param("page"); v != "" {
		p, err := strconv.Atoi(strings.TrimPrefix(v, "Page"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListProductsInput{
		Category: c.Param("category"),
		Page:     page,
	})
	if err != nil {
		return writeError(c, err)
	}
	if out.RedirectTo != "" {
		return c.Redirect(http.StatusFound, out.RedirectTo)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

// ナビゲーションメニュー
func (h *ProductHandler) categories(c echo.Context) error {
	cats, err := h.uc.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CategoriesResponse{Categories: cats, SelectedCategory: c.QueryParam("category")})
}

type CategoriesResponse struct {
	Categories       []string `json:"categories"`
	SelectedCategory string   `json:"selected_category"`
}
