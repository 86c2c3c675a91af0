package extraction

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the subset of the OpenAI client used here
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ClientConfig configures the OpenAI client
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIClient builds an OpenAI client with an HTTP timeout
func NewOpenAIClient(cfg ClientConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

// complete sends a chat request through the retry strategy and returns the first choice's content
func complete(ctx context.Context, client ChatClient, retry *RetryStrategy, req openai.ChatCompletionRequest) (string, error) {
	var content string
	err := retry.Do(ctx, func(ctx context.Context) error {
		resp, err := client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrNoResponse
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	return content, err
}
