package extraction

import (
	"context"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// fakeChatClient replays canned answers and records requests
type fakeChatClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []openai.ChatCompletionRequest
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.requests)
	f.requests = append(f.requests, req)

	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	if i >= len(f.responses) {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.responses[i]}},
		},
	}, nil
}

func (f *fakeChatClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func fastRetry(attempts int) *RetryStrategy {
	return &RetryStrategy{
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
	}
}
