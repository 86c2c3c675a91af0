package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Columns names the headers that hold each field of a price sheet.
// Empty means the field was not found.
type Columns struct {
	Product string `json:"product_column"`
	Price   string `json:"price_column"`
	Date    string `json:"date_column"`
	// Source is "model" or "keyword"
	Source string `json:"source"`
}

// Column identification sources
const (
	SourceModel   = "model"
	SourceKeyword = "keyword"
)

// ColumnIdentifier picks the product, price and date columns of a sheet
type ColumnIdentifier interface {
	Identify(ctx context.Context, headers []string, sampleRows []map[string]string) (Columns, error)
}

var (
	productKeywords = []string{"product", "description", "item", "name"}
	priceKeywords   = []string{"price", "unit", "cost"}
	dateKeywords    = []string{"date", "order"}
)

// FallbackColumns identifies columns by keywords in the header names.
// Roles are assigned product, price, date in that order. Keywords are tried in
// priority order, the first header containing a keyword wins, and a header
// serves at most one role.
func FallbackColumns(headers []string) Columns {
	used := make(map[int]bool)
	pick := func(keywords []string) string {
		for _, kw := range keywords {
			for i, h := range headers {
				if used[i] {
					continue
				}
				if strings.Contains(strings.ToLower(h), kw) {
					used[i] = true
					return h
				}
			}
		}
		return ""
	}

	cols := Columns{Source: SourceKeyword}
	cols.Product = pick(productKeywords)
	cols.Price = pick(priceKeywords)
	cols.Date = pick(dateKeywords)
	return cols
}

// KeywordIdentifier identifies columns with FallbackColumns only
type KeywordIdentifier struct{}

// Identify implements ColumnIdentifier
func (KeywordIdentifier) Identify(_ context.Context, headers []string, _ []map[string]string) (Columns, error) {
	cols := FallbackColumns(headers)
	if cols.Product == "" {
		return cols, ErrNoProductColumn
	}
	return cols, nil
}

// OpenAIColumnIdentifier asks a chat model which headers hold product, price and date.
// Any model failure falls back to keyword matching.
type OpenAIColumnIdentifier struct {
	client  ChatClient
	prompts *PromptConfig
	retry   *RetryStrategy
	model   string
	logger  *zap.Logger
}

// NewOpenAIColumnIdentifier creates a new column identifier
func NewOpenAIColumnIdentifier(client ChatClient, prompts *PromptConfig, retry *RetryStrategy, model string, logger *zap.Logger) *OpenAIColumnIdentifier {
	return &OpenAIColumnIdentifier{
		client:  client,
		prompts: prompts,
		retry:   retry,
		model:   model,
		logger:  logger,
	}
}

type columnPromptData struct {
	Headers    []string
	SampleRows []string
}

type columnAnswer struct {
	ProductColumn string `json:"productColumn"`
	PriceColumn   string `json:"priceColumn"`
	DateColumn    string `json:"dateColumn"`
}

// Identify implements ColumnIdentifier. The error is non-nil only when neither
// the model nor the keyword fallback found a product column.
func (c *OpenAIColumnIdentifier) Identify(ctx context.Context, headers []string, sampleRows []map[string]string) (Columns, error) {
	cols, err := c.identifyWithModel(ctx, headers, sampleRows)
	if err != nil {
		c.logger.Warn("Column identification by model failed, using keyword fallback",
			zap.Strings("headers", headers),
			zap.Error(err))
		return KeywordIdentifier{}.Identify(ctx, headers, sampleRows)
	}
	return cols, nil
}

func (c *OpenAIColumnIdentifier) identifyWithModel(ctx context.Context, headers []string, sampleRows []map[string]string) (Columns, error) {
	samples := make([]string, 0, len(sampleRows))
	for _, row := range sampleRows {
		b, err := json.Marshal(row)
		if err != nil {
			continue
		}
		samples = append(samples, string(b))
	}

	spec := c.prompts.ColumnIdentification
	prompt, err := renderTemplate(spec.UserTemplate, columnPromptData{Headers: headers, SampleRows: samples})
	if err != nil {
		return Columns{}, err
	}

	answer, err := complete(ctx, c.client, c.retry, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: spec.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Columns{}, err
	}

	raw := strings.TrimSpace(answer)
	if !json.Valid([]byte(raw)) {
		raw = extractJSON(raw)
	}
	var parsed columnAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Columns{}, fmt.Errorf("failed to parse column answer: %w", err)
	}

	cols := Columns{
		Product: matchHeader(headers, parsed.ProductColumn),
		Price:   matchHeader(headers, parsed.PriceColumn),
		Date:    matchHeader(headers, parsed.DateColumn),
		Source:  SourceModel,
	}
	if cols.Product == "" {
		return cols, ErrNoProductColumn
	}

	c.logger.Debug("Columns identified by model",
		zap.String("product", cols.Product),
		zap.String("price", cols.Price),
		zap.String("date", cols.Date))
	return cols, nil
}

// matchHeader returns the header equal (case-insensitively) to name, or "" when the model named no real header
func matchHeader(headers []string, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, h := range headers {
		if h == name {
			return h
		}
	}
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return h
		}
	}
	return ""
}
