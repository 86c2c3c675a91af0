package extraction

import (
	"context"
	"fmt"

	"github.com/garyjia/event-invoice-analyzer/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Extractor turns one invoice document into structured line items
type Extractor interface {
	Extract(ctx context.Context, doc Document) (*models.ExtractionResult, error)
}

// ExtractorConfig holds the model settings for invoice extraction
type ExtractorConfig struct {
	Model string
	// VisionModel is used for documents sent as images; empty means Model
	VisionModel string
	MaxPages    int
}

// OpenAIExtractor extracts invoices with a chat model, using vision input for PDFs and images
type OpenAIExtractor struct {
	client  ChatClient
	prompts *PromptConfig
	retry   *RetryStrategy
	cfg     ExtractorConfig
	logger  *zap.Logger
}

// NewOpenAIExtractor creates a new extractor
func NewOpenAIExtractor(client ChatClient, prompts *PromptConfig, retry *RetryStrategy, cfg ExtractorConfig, logger *zap.Logger) *OpenAIExtractor {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	return &OpenAIExtractor{
		client:  client,
		prompts: prompts,
		retry:   retry,
		cfg:     cfg,
		logger:  logger,
	}
}

type extractionPromptData struct {
	FileName   string
	Categories []models.Category
	Text       string
}

// Extract reads the document, asks the model for line items and validates the answer
func (e *OpenAIExtractor) Extract(ctx context.Context, doc Document) (*models.ExtractionResult, error) {
	e.logger.Info("Extracting invoice", zap.String("file_name", doc.FileName))

	content, err := loadContent(doc, e.cfg.MaxPages)
	if err != nil {
		return nil, err
	}

	spec := e.prompts.InvoiceExtraction
	prompt, err := renderTemplate(spec.UserTemplate, extractionPromptData{
		FileName:   doc.FileName,
		Categories: models.AllCategories,
		Text:       content.Text,
	})
	if err != nil {
		return nil, err
	}

	model := e.cfg.Model
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(content.Images) > 0 {
		if e.cfg.VisionModel != "" {
			model = e.cfg.VisionModel
		}
		parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
		for _, url := range content.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    url,
					Detail: openai.ImageURLDetailHigh,
				},
			})
		}
		user.MultiContent = parts
	} else {
		user.Content = prompt
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: spec.System},
			user,
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	answer, err := complete(ctx, e.client, e.retry, req)
	if err != nil {
		e.logger.Error("Extraction API call failed", zap.String("file_name", doc.FileName), zap.Error(err))
		return nil, fmt.Errorf("extraction API call failed: %w", err)
	}

	result, err := ParseInvoiceResponse(answer)
	if err != nil {
		e.logger.Error("Failed to parse extraction response",
			zap.String("file_name", doc.FileName),
			zap.String("content", answer),
			zap.Error(err))
		return nil, err
	}

	if len(result.UnknownCategories) > 0 {
		e.logger.Warn("Extraction returned unknown categories",
			zap.String("file_name", doc.FileName),
			zap.Strings("categories", result.UnknownCategories))
	}

	e.logger.Info("Invoice extracted",
		zap.String("file_name", doc.FileName),
		zap.Int("line_items", len(result.LineItems)),
		zap.Bool("preloaded_drinks", result.PreloadedDrinks != nil))

	return result, nil
}

// DisabledExtractor fails every document; used when no API key is configured
type DisabledExtractor struct{}

// Extract always returns ErrExtractionDisabled
func (DisabledExtractor) Extract(context.Context, Document) (*models.ExtractionResult, error) {
	return nil, ErrExtractionDisabled
}
