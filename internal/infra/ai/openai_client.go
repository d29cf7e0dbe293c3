package ai

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	APIKey     string
	BaseURL    string // 空ならOpenAI本家
	Model      string // Azureではデプロイ名
	APIVersion string // Azureのみ
}

// チャット補完をストリームで受け取り、連結して返す
type OpenAIChatClient struct {
	client *openai.Client
	model  string
}

// DI
func NewOpenAIChatClient(cfg Config) *OpenAIChatClient {
	var oc openai.ClientConfig
	if strings.Contains(strings.ToLower(cfg.BaseURL), "azure") {
		oc = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		oc.APIVersion = cfg.APIVersion
		//デプロイ名 = モデル名 として扱う
		oc.AzureModelMapperFunc = func(model string) string { return model }
	} else {
		oc = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
	}
	return &OpenAIChatClient{client: openai.NewClientWithConfig(oc), model: cfg.Model}
}

func (c *OpenAIChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Stream: true,
	})
	if err != nil {
		return "", err
	}
	defer stream.Close()

	//最後のチャンクまで読み切ってから返す
	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		for _, ch := range resp.Choices {
			sb.WriteString(ch.Delta.Content)
		}
	}

	log.WithField("component", "ai").WithField("chars", sb.Len()).Debug("chat completion done")
	return sb.String(), nil
}
