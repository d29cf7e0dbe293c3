package usecase

import (
	"context"
	"fmt"
	"strings"

	"laekning/internal/domain/model"
	"laekning/internal/metrics"
	repo "laekning/internal/repository"
	"laekning/internal/session"

	log "github.com/sirupsen/logrus"
)

// 会話履歴のセッションキー
const ChatHistoryKey = "HealthAssistantChatHistory"

// セッションに残す履歴の上限（cookieのサイズ上限に収める）。古いものから捨てる
const MaxChatHistory = 16

type Recommendation struct {
	ProductName string `json:"product_name"`
	Available   bool   `json:"available"`
}

// AssistantUsecase は症状や薬名から商品を提案するチャット
type AssistantUsecase struct {
	products repo.ProductRepository
	chat     ChatCompleter
	locks    *session.KeyedMutex
	metrics  *metrics.Metrics
}

func NewAssistantUsecase(products repo.ProductRepository, chat ChatCompleter, locks *session.KeyedMutex, m *metrics.Metrics) *AssistantUsecase {
	return &AssistantUsecase{products: products, chat: chat, locks: locks, metrics: m}
}

// Recommend は全商品名をプロンプトに載せて提案させ、
// 提案ごとに name/description の部分一致で在庫有無を調べる。
func (u *AssistantUsecase) Recommend(ctx context.Context, query string) ([]Recommendation, error) {
	names, err := u.products.ListNames(ctx)
	if err != nil {
		return nil, dbError()
	}

	text, err := u.chat.Complete(ctx, assistantPrompt(names), query)
	if err != nil {
		u.metrics.UpstreamError("chat")
		log.WithField("component", "assistant").WithError(err).Error("chat completion failed")
		return nil, upstreamError()
	}

	recs := make([]Recommendation, 0)
	for _, n := range SplitNames(text) {
		ok, err := u.products.ExistsLike(ctx, n)
		if err != nil {
			return nil, dbError()
		}
		recs = append(recs, Recommendation{ProductName: n, Available: ok})
	}
	return recs, nil
}

func (u *AssistantUsecase) History(ctx context.Context, store session.Store) []model.ChatMessage {
	var h []model.ChatMessage
	if !session.GetJSON(ctx, store, ChatHistoryKey, &h) || h == nil {
		return []model.ChatMessage{}
	}
	return h
}

// Ask は質問と提案結果を履歴に追加して保存する。空の質問は何もしない
func (u *AssistantUsecase) Ask(ctx context.Context, store session.Store, query string) ([]model.ChatMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return u.History(ctx, store), nil
	}

	recs, err := u.Recommend(ctx, query)
	if err != nil {
		return nil, err
	}

	//提案名に一致する商品（リンク用）
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		names = append(names, r.ProductName)
	}
	matched, err := u.products.FindByNames(ctx, names, 0)
	if err != nil {
		return nil, dbError()
	}
	byName := make(map[string]model.Product, len(matched))
	for _, p := range matched {
		byName[strings.ToLower(p.Name)] = p
	}

	unlock := u.locks.Lock(store.ID())
	defer unlock()

	history := u.History(ctx, store)
	history = append(history, model.ChatMessage{Role: model.ChatRoleUser, Content: query})

	for _, r := range recs {
		msg := model.ChatMessage{Role: model.ChatRoleBot}
		if r.Available {
			msg.Content = fmt.Sprintf("You may try %s. You can view it here.", r.ProductName)
			if p, ok := byName[strings.ToLower(r.ProductName)]; ok {
				id := p.ID
				msg.ProductID = &id
			}
		} else {
			msg.Content = fmt.Sprintf("We currently do not have %s in stock, but we'll consider adding it soon.", r.ProductName)
		}
		history = append(history, msg)
	}

	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}
	if err := session.SetJSON(ctx, store, ChatHistoryKey, history); err != nil {
		log.WithField("component", "assistant").WithError(err).Warn("chat history save failed")
	}
	return history, nil
}
