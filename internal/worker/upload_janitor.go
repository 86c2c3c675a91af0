package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Purger removes upload folders older than maxAge
type Purger interface {
	PurgeStale(maxAge time.Duration, now time.Time) (int, error)
}

// UploadJanitor periodically removes upload folders left behind by
// requests that did not clean up after themselves
type UploadJanitor struct {
	purger   Purger
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	purged    int
}

// NewUploadJanitor creates a janitor that runs every interval and removes folders older than maxAge
func NewUploadJanitor(purger Purger, interval, maxAge time.Duration, logger *zap.Logger) *UploadJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadJanitor{
		purger:   purger,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		logger:   logger,
	}
}

// Start starts the cleanup loop
func (j *UploadJanitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return fmt.Errorf("upload janitor is already running")
	}
	if j.interval <= 0 {
		return fmt.Errorf("upload janitor interval must be positive, got %s", j.interval)
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})
	j.isRunning = true

	j.logger.Info("UploadJanitor started",
		zap.Duration("interval", j.interval),
		zap.Duration("max_age", j.maxAge))

	go j.loop(ctx, j.done)
	return nil
}

// Stop stops the cleanup loop and waits for an in-progress sweep to finish
func (j *UploadJanitor) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	j.cancel()
	done := j.done
	j.mu.Unlock()

	<-done
	j.logger.Info("UploadJanitor stopped")
}

// Name returns the worker name for identification
func (j *UploadJanitor) Name() string {
	return "UploadJanitor"
}

// Purged returns the number of folders removed since start
func (j *UploadJanitor) Purged() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.purged
}

func (j *UploadJanitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

// sweep runs one cleanup pass
func (j *UploadJanitor) sweep() {
	removed, err := j.purger.PurgeStale(j.maxAge, j.now())
	if err != nil {
		j.logger.Error("Failed to purge stale uploads", zap.Error(err))
		return
	}

	if removed > 0 {
		j.mu.Lock()
		j.purged += removed
		j.mu.Unlock()
		j.logger.Info("Purged stale upload folders", zap.Int("count", removed))
	}
}
