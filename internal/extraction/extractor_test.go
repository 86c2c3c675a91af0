package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) Document {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return Document{FileName: name, Path: path}
}

func TestOpenAIExtractor_TextDocument(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "invoice.csv", "Item,Qty,Total\nWings,2,24.00\nBowling,1,60.00\n")

	client := &fakeChatClient{responses: []string{sampleInvoice}}
	extractor := NewOpenAIExtractor(client, DefaultPrompts(), fastRetry(1), ExtractorConfig{Model: "gpt-4o"}, zap.NewNop())

	result, err := extractor.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Len(t, result.LineItems, 5)

	require.Equal(t, 1, client.calls())
	req := client.requests[0]
	assert.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[1].Content, "Wings,2,24.00")
	assert.Contains(t, req.Messages[1].Content, "invoice.csv")
	assert.Contains(t, req.Messages[1].Content, "MINI_GOLF")
	assert.Empty(t, req.Messages[1].MultiContent)
}

func TestOpenAIExtractor_ImageDocument(t *testing.T) {
	dir := t.TempDir()
	// PNG signature followed by junk is enough for content sniffing
	doc := writeFile(t, dir, "receipt.png", "\x89PNG\r\n\x1a\nfakeimagedata")

	client := &fakeChatClient{responses: []string{sampleInvoice}}
	cfg := ExtractorConfig{Model: "gpt-4o-mini", VisionModel: "gpt-4o"}
	extractor := NewOpenAIExtractor(client, DefaultPrompts(), fastRetry(1), cfg, zap.NewNop())

	_, err := extractor.Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", client.requests[0].Model)
	parts := client.requests[0].Messages[1].MultiContent
	require.Len(t, parts, 2)
	require.NotNil(t, parts[1].ImageURL)
	assert.Contains(t, parts[1].ImageURL.URL, "data:image/png;base64,")
}

func TestOpenAIExtractor_SpreadsheetDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Description", "Total"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Nachos", 14.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	client := &fakeChatClient{responses: []string{sampleInvoice}}
	extractor := NewOpenAIExtractor(client, DefaultPrompts(), fastRetry(1), ExtractorConfig{Model: "gpt-4o"}, zap.NewNop())

	_, err := extractor.Extract(context.Background(), Document{FileName: "invoice.xlsx", Path: path})
	require.NoError(t, err)
	assert.Contains(t, client.requests[0].Messages[1].Content, "Nachos\t14.5")
}

func TestOpenAIExtractor_Failures(t *testing.T) {
	dir := t.TempDir()

	t.Run("unsupported file type", func(t *testing.T) {
		doc := writeFile(t, dir, "invoice.docx", "binary")
		client := &fakeChatClient{}
		extractor := NewOpenAIExtractor(client, DefaultPrompts(), fastRetry(1), ExtractorConfig{}, zap.NewNop())

		_, err := extractor.Extract(context.Background(), doc)
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
		assert.Equal(t, 0, client.calls())
	})

	t.Run("empty text document", func(t *testing.T) {
		doc := writeFile(t, dir, "empty.txt", "   \n")
		extractor := NewOpenAIExtractor(&fakeChatClient{}, DefaultPrompts(), fastRetry(1), ExtractorConfig{}, zap.NewNop())

		_, err := extractor.Extract(context.Background(), doc)
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})

	t.Run("model returns garbage", func(t *testing.T) {
		doc := writeFile(t, dir, "garbage.txt", "Wings 12.00")
		client := &fakeChatClient{responses: []string{"sorry, I cannot help"}}
		extractor := NewOpenAIExtractor(client, DefaultPrompts(), fastRetry(1), ExtractorConfig{}, zap.NewNop())

		_, err := extractor.Extract(context.Background(), doc)
		assert.ErrorIs(t, err, ErrInvalidExtraction)
	})

	t.Run("no choices", func(t *testing.T) {
		doc := writeFile(t, dir, "nochoice.txt", "Wings 12.00")
		extractor := NewOpenAIExtractor(&fakeChatClient{}, DefaultPrompts(), fastRetry(1), ExtractorConfig{}, zap.NewNop())

		_, err := extractor.Extract(context.Background(), doc)
		assert.ErrorIs(t, err, ErrNoResponse)
	})

	t.Run("permanent API error is not retried", func(t *testing.T) {
		doc := writeFile(t, dir, "denied.txt", "Wings 12.00")
		client := &fakeChatClient{errs: []error{errors.New("invalid api key")}}
		extractor := NewOpenAIExtractor(client, DefaultPrompts(), fastRetry(3), ExtractorConfig{}, zap.NewNop())

		_, err := extractor.Extract(context.Background(), doc)
		require.Error(t, err)
		assert.Equal(t, 1, client.calls())
	})
}

func TestDisabledExtractor(t *testing.T) {
	_, err := DisabledExtractor{}.Extract(context.Background(), Document{FileName: "a.pdf"})
	assert.ErrorIs(t, err, ErrExtractionDisabled)
}

func TestDocument_Kind(t *testing.T) {
	assert.Equal(t, KindPDF, Document{FileName: "a.PDF"}.Kind())
	assert.Equal(t, KindImage, Document{FileName: "a.jpeg"}.Kind())
	assert.Equal(t, KindSpreadsheet, Document{FileName: "a.xlsx"}.Kind())
	assert.Equal(t, KindText, Document{FileName: "a.csv"}.Kind())
	assert.Equal(t, KindUnknown, Document{FileName: "a"}.Kind())
}
