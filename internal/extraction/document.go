package extraction

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/xuri/excelize/v2"
)

// DocumentKind is the detected format of an uploaded document
type DocumentKind int

// Document kinds
const (
	KindUnknown DocumentKind = iota
	KindPDF
	KindImage
	KindSpreadsheet
	KindText
)

// Document is one uploaded invoice stored on disk
type Document struct {
	FileName string
	Path     string
}

// Kind detects the document format from its file extension
func (d Document) Kind() DocumentKind {
	switch strings.ToLower(filepath.Ext(d.FileName)) {
	case ".pdf":
		return KindPDF
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return KindImage
	case ".xlsx", ".xlsm":
		return KindSpreadsheet
	case ".csv", ".txt", ".tsv":
		return KindText
	default:
		return KindUnknown
	}
}

// documentContent is what gets sent to the model: either text or images
type documentContent struct {
	Text   string
	Images []string // data URLs
}

// maxTextBytes bounds text sent to the model
const maxTextBytes = 60000

// loadContent converts a document into model input. PDFs are rendered page by
// page (up to maxPages) to JPEG.
func loadContent(doc Document, maxPages int) (*documentContent, error) {
	switch doc.Kind() {
	case KindPDF:
		images, err := renderPDF(doc.Path, maxPages)
		if err != nil {
			return nil, err
		}
		return &documentContent{Images: images}, nil

	case KindImage:
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		if len(data) == 0 {
			return nil, ErrEmptyDocument
		}
		return &documentContent{Images: []string{dataURL(http.DetectContentType(data), data)}}, nil

	case KindSpreadsheet:
		text, err := spreadsheetText(doc.Path)
		if err != nil {
			return nil, err
		}
		return &documentContent{Text: truncate(text)}, nil

	case KindText:
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, ErrEmptyDocument
		}
		return &documentContent{Text: truncate(text)}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(doc.FileName))
	}
}

// renderPDF converts PDF pages to JPEG data URLs
func renderPDF(path string, maxPages int) ([]string, error) {
	pdf, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer pdf.Close()

	pages := pdf.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	images := make([]string, 0, pages)
	for n := 0; n < pages; n++ {
		img, err := pdf.Image(n)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", n+1, err)
		}
		data, err := encodeJPEG(img)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", n+1, err)
		}
		images = append(images, dataURL("image/jpeg", data))
	}

	if len(images) == 0 {
		return nil, ErrEmptyDocument
	}
	return images, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// spreadsheetText flattens every sheet of a workbook to tab-separated text
func spreadsheetText(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		fmt.Fprintf(&sb, "# %s\n", sheet)
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteByte('\n')
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func dataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func truncate(text string) string {
	if len(text) <= maxTextBytes {
		return text
	}
	return text[:maxTextBytes]
}
