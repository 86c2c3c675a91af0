package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/event-invoice-analyzer/internal/application/service"
	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/storage"
	"github.com/garyjia/event-invoice-analyzer/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	config ServerConfig
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, config ServerConfig, logger *zap.Logger) *Handlers {
	return &Handlers{
		deps:   deps,
		config: config,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	Version           string `json:"version"`
	ExtractionEnabled bool   `json:"extraction_enabled"`
}

// MatchResponse wraps per-candidate match results
type MatchResponse struct {
	Results interface{} `json:"results"`
}

var errBadForm = errors.New("invalid multipart form")

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:            "healthy",
			Timestamp:         time.Now().UTC().Format(time.RFC3339),
			Version:           h.config.Version,
			ExtractionEnabled: h.config.ExtractionEnabled,
		},
	})
}

// Analyze handles POST /api/analyze with one or more invoice files under "files"
func (h *Handlers) Analyze(c *gin.Context) {
	form, err := h.multipartForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	files := formFiles(form, "files")
	if len(files) == 0 {
		h.fail(c, service.ErrNoDocuments)
		return
	}

	batch, err := h.deps.Folders.CreateBatch()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer h.removeBatch(batch)

	docs := make([]extraction.Document, 0, len(files))
	for _, fh := range files {
		stored, err := batch.SaveMultipart(fh)
		if err != nil {
			h.fail(c, err)
			return
		}
		docs = append(docs, extraction.Document{FileName: stored.Name, Path: stored.Path})
	}

	result, err := h.deps.Analysis.Analyze(c.Request.Context(), docs)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// Reconcile handles POST /api/reconcile with a "reference" sheet, one or more
// "vendors" sheets and an optional "mapping" sheet
func (h *Handlers) Reconcile(c *gin.Context) {
	form, err := h.multipartForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	refs := formFiles(form, "reference")
	if len(refs) == 0 {
		h.fail(c, service.ErrNoReference)
		return
	}
	vendors := formFiles(form, "vendors")
	if len(vendors) == 0 {
		h.fail(c, service.ErrNoVendorSheets)
		return
	}
	mappings := formFiles(form, "mapping")

	all := append([]*multipart.FileHeader{refs[0]}, vendors...)
	if len(mappings) > 0 {
		all = append(all, mappings[0])
	}
	for _, fh := range all {
		if err := utils.ValidateFileExtension(fh.Filename, utils.SpreadsheetExtensions); err != nil {
			h.badRequest(c, err.Error())
			return
		}
	}

	batch, err := h.deps.Folders.CreateBatch()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer h.removeBatch(batch)

	save := func(fh *multipart.FileHeader) (service.SheetFile, error) {
		stored, err := batch.SaveMultipart(fh)
		if err != nil {
			return service.SheetFile{}, err
		}
		return service.SheetFile{Name: stored.Name, Path: stored.Path}, nil
	}

	var in service.ReconcileInput
	if in.Reference, err = save(refs[0]); err != nil {
		h.fail(c, err)
		return
	}
	if len(mappings) > 0 {
		m, err := save(mappings[0])
		if err != nil {
			h.fail(c, err)
			return
		}
		in.Mapping = &m
	}
	for _, fh := range vendors {
		v, err := save(fh)
		if err != nil {
			h.fail(c, err)
			return
		}
		in.Vendors = append(in.Vendors, v)
	}

	report, err := h.deps.Reconciliation.Reconcile(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// Breakdown handles POST /api/breakdown. The body has the same shape as an
// extraction result: {eventDetails, lineItems, preloadedDrinks}.
func (h *Handlers) Breakdown(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.badRequest(c, "failed to read request body")
		return
	}

	result, err := extraction.ParseInvoiceResponse(string(body))
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: h.deps.Analysis.Breakdown("request", result)})
}

// Match handles POST /api/match
func (h *Handlers) Match(c *gin.Context) {
	var req service.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	if len(req.Candidates) == 0 {
		h.badRequest(c, "candidates is required")
		return
	}
	// blank candidates stay so results line up with the request by index
	for i, candidate := range req.Candidates {
		req.Candidates[i] = utils.SanitizeString(candidate)
	}
	req.References = utils.SanitizeStrings(req.References)

	results := h.deps.Reconciliation.Match(req)
	c.JSON(http.StatusOK, Response{Success: true, Data: MatchResponse{Results: results}})
}

func (h *Handlers) multipartForm(c *gin.Context) (*multipart.Form, error) {
	if h.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.MaxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request exceeds %d bytes", storage.ErrFileTooLarge, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: %v", errBadForm, err)
	}
	return form, nil
}

// formFiles returns the files under key, also accepting the "key[]" spelling
func formFiles(form *multipart.Form, key string) []*multipart.FileHeader {
	files := make([]*multipart.FileHeader, 0, len(form.File[key])+len(form.File[key+"[]"]))
	files = append(files, form.File[key]...)
	return append(files, form.File[key+"[]"]...)
}

func (h *Handlers) removeBatch(batch *storage.Batch) {
	if err := batch.Remove(); err != nil {
		h.logger.Warn("Failed to remove upload batch",
			zap.String("batch_id", batch.ID),
			zap.Error(err))
	}
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// fail maps an error to a status code and writes the error envelope
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadForm), service.IsInputError(err):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
		c.JSON(status, Response{Success: false, Error: "internal server error"})
		return
	}

	h.logger.Info("Request rejected",
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err))
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
