package handler

import (
	"net/http"
	"net/url"
	"strings"

	"laekning/internal/middleware"
	"laekning/internal/session"
	"laekning/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP（セッションのカート）
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// フォームでもJSONでも受け付ける
type CartLineRequest struct {
	ProductID int64  `json:"product_id" form:"product_id"`
	ReturnURL string `json:"return_url" form:"return_url"`
}

type CartResponse struct {
	usecase.CartSummary
	ReturnURL string `json:"return_url"`
}

// /cart, /cart/remove を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.POST("/remove", h.removeLine)
}

func (h *CartHandler) getCart(c echo.Context) error {
	store, ok := sessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	out, err := h.uc.Get(c.Request().Context(), store)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CartResponse{CartSummary: out, ReturnURL: safeReturnURL(c.QueryParam("returnUrl"))})
}

func (h *CartHandler) addToCart(c echo.Context) error {
	store, ok := sessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	var req CartLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if _, err := h.uc.AddItem(c.Request().Context(), store, req.ProductID); err != nil {
		return writeError(c, err)
	}
	if !saveSession(c) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	return redirectToCart(c, req.ReturnURL)
}

func (h *CartHandler) removeLine(c echo.Context) error {
	store, ok := sessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	var req CartLineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if _, err := h.uc.RemoveLine(c.Request().Context(), store, req.ProductID); err != nil {
		return writeError(c, err)
	}
	if !saveSession(c) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	return redirectToCart(c, req.ReturnURL)
}

func redirectToCart(c echo.Context, returnURL string) error {
	return c.Redirect(http.StatusSeeOther, "/cart?returnUrl="+url.QueryEscape(safeReturnURL(returnURL)))
}

// オープンリダイレクト防止。サイト内の相対パスだけ通す
func safeReturnURL(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "/") || strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/\\") {
		return "/"
	}
	return s
}

func sessionFromContext(c echo.Context) (session.Store, bool) {
	store := middleware.SessionStore(c)
	return store, store != nil
}

// 変更したセッションをレスポンス前に確定する。書けなければfalse
func saveSession(c echo.Context) bool {
	return middleware.CommitSession(c) == nil
}
