package service

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/models"
)

type fakeExtractor struct {
	results map[string]*models.ExtractionResult
	errs    map[string]error
	delay   time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (f *fakeExtractor) Extract(ctx context.Context, doc extraction.Document) (*models.ExtractionResult, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err, ok := f.errs[doc.FileName]; ok {
		return nil, err
	}
	if r, ok := f.results[doc.FileName]; ok {
		return r, nil
	}
	return &models.ExtractionResult{}, nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	documents map[bool]int
	matches   map[string]int
	dropped   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{documents: make(map[bool]int), matches: make(map[string]int)}
}

func (m *fakeMetrics) ObserveDocument(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[success]++
}

func (m *fakeMetrics) ObserveMatches(method string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[method] += n
}

func (m *fakeMetrics) ObserveDroppedItems(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped += n
}

func (m *fakeMetrics) ObserveRequest(string, string, int, time.Duration) {}
