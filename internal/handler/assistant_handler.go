package handler

import (
	"net/http"

	"laekning/internal/domain/model"
	"laekning/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /health-assistant（チャット）と /recommendations
type AssistantHandler struct {
	assistant       *usecase.AssistantUsecase
	recommendations *usecase.RecommendationsUsecase
}

func NewAssistantHandler(assistant *usecase.AssistantUsecase, recommendations *usecase.RecommendationsUsecase) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, recommendations: recommendations}
}

type AssistantRequest struct {
	UserQuery string `json:"user_query" form:"userQuery"`
}

type ChatHistoryResponse struct {
	ChatHistory []model.ChatMessage `json:"chat_history"`
}

func (h *AssistantHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health-assistant", h.history)
	e.POST("/health-assistant", h.ask)
	e.GET("/recommendations", h.recommend)
}

func (h *AssistantHandler) history(c echo.Context) error {
	store, ok := sessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}
	return c.JSON(http.StatusOK, ChatHistoryResponse{ChatHistory: h.assistant.History(c.Request().Context(), store)})
}

func (h *AssistantHandler) ask(c echo.Context) error {
	store, ok := sessionFromContext(c)
	if !ok {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}

	var req AssistantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	history, err := h.assistant.Ask(c.Request().Context(), store, req.UserQuery)
	if err != nil {
		return writeError(c, err)
	}
	if !saveSession(c) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "session error"})
	}
	return c.JSON(http.StatusOK, ChatHistoryResponse{ChatHistory: history})
}

func (h *AssistantHandler) recommend(c echo.Context) error {
	out, err := h.recommendations.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
