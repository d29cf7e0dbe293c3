package handler

import (
	"net/http"

	"laekning/internal/usecase"

	"github.com/labstack/echo/v4"
)

type SupportHandler struct {
	uc *usecase.SupportUsecase
}

func NewSupportHandler(uc *usecase.SupportUsecase) *SupportHandler {
	return &SupportHandler{uc: uc}
}

func (h *SupportHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/support", h.get)
}

func (h *SupportHandler) get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uc.Get(c.QueryParam("option")))
}
