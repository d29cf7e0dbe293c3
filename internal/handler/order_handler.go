package handler

import (
	"net/http"
	"strconv"

	"laekning/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// チェックアウトフォーム（フォーム名はvalidatorの項目名と同じ）
type CheckoutRequest struct {
	Name     string `json:"name" form:"Name"`
	Line1    string `json:"line1" form:"Line1"`
	Line2    string `json:"line2" form:"Line2"`
	Line3    string `json:"line3" form:"Line3"`
	City     string `json:"city" form:"City"`
	State    string `json:"state" form:"State"`
	Zip      string `json:"zip" form:"Zip"`
	Country  string `json:"country" form:"Country"`
	GiftWrap bool   `json:"gift_wrap" form:"GiftWrap"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/checkout", h.form)
	e.POST("/checkout", h.checkout)
	e.GET("/completed", h.completed)
}

// 空のフォーム
func (h *OrderHandler) form(c echo.Context) error {
	return c.JSON(http.StatusOK, CheckoutRequest{})
}

func (h *OrderHandler) checkout(c echo.Context) error {
	store, ok := sessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	orderID, err := h.uc.Checkout(c.Request().Context(), store, usecase.CheckoutInput{
		Name:     req.Name,
		Line1:    req.Line1,
		Line2:    req.Line2,
		Line3:    req.Line3,
		City:     req.City,
		State:    req.State,
		Zip:      req.Zip,
		Country:  req.Country,
		GiftWrap: req.GiftWrap,
	})
	if err != nil {
		return writeError(c, err)
	}
	if !saveSession(c) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	return c.Redirect(http.StatusSeeOther, "/completed?orderId="+strconv.FormatInt(orderID, 10))
}

func (h *OrderHandler) completed(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.QueryParam("orderId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
	}

	out, err := h.uc.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
