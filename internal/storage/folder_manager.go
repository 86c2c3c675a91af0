package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._\- ]`)

// FolderManager manages per-request upload folders under the storage root
type FolderManager struct {
	storage *LocalFileStorage
	logger  *zap.Logger
}

// NewFolderManager creates a new FolderManager
func NewFolderManager(storage *LocalFileStorage, logger *zap.Logger) *FolderManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderManager{
		storage: storage,
		logger:  logger,
	}
}

// StoredFile is an upload saved to disk. Name is the client-supplied file name.
type StoredFile struct {
	Name string
	Path string
	Size int64
}

// Batch is the set of files uploaded with one request
type Batch struct {
	ID  string
	Dir string

	storage *LocalFileStorage
	logger  *zap.Logger

	mu    sync.Mutex
	files []StoredFile
}

// CreateBatch creates {baseDir}/{uuid}/ for a new request
func (m *FolderManager) CreateBatch() (*Batch, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.storage.BaseDir(), id)

	if err := os.MkdirAll(dir, 0755); err != nil {
		m.logger.Error("Failed to create upload folder",
			zap.String("batch_id", id),
			zap.String("folder_path", dir),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	m.logger.Debug("Created upload folder",
		zap.String("batch_id", id),
		zap.String("folder_path", dir))

	return &Batch{ID: id, Dir: dir, storage: m.storage, logger: m.logger}, nil
}

// Save stores one upload. Files are prefixed with their position in the
// batch so equal client names do not collide.
func (b *Batch) Save(name string, content io.Reader) (StoredFile, error) {
	b.mu.Lock()
	idx := len(b.files)
	b.files = append(b.files, StoredFile{})
	b.mu.Unlock()

	path := filepath.Join(b.Dir, fmt.Sprintf("%03d_%s", idx, SanitizeFileName(name)))

	n, err := b.storage.SaveFile(path, content)
	if err != nil {
		return StoredFile{}, err
	}

	stored := StoredFile{Name: name, Path: path, Size: n}
	b.mu.Lock()
	b.files[idx] = stored
	b.mu.Unlock()
	return stored, nil
}

// SaveMultipart stores a multipart form file
func (b *Batch) SaveMultipart(fh *multipart.FileHeader) (StoredFile, error) {
	src, err := fh.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	return b.Save(fh.Filename, src)
}

// Files returns the successfully stored files in save order
func (b *Batch) Files() []StoredFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]StoredFile, 0, len(b.files))
	for _, f := range b.files {
		if f.Path != "" {
			out = append(out, f)
		}
	}
	return out
}

// Remove deletes the batch folder and all contents. Removing twice is not an error.
func (b *Batch) Remove() error {
	if err := os.RemoveAll(b.Dir); err != nil {
		b.logger.Error("Failed to delete upload folder",
			zap.String("batch_id", b.ID),
			zap.String("folder_path", b.Dir),
			zap.Error(err))
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	b.logger.Debug("Deleted upload folder",
		zap.String("batch_id", b.ID),
		zap.String("folder_path", b.Dir))
	return nil
}

// PurgeStale removes upload folders last modified before now-maxAge and
// returns how many were removed
func (m *FolderManager) PurgeStale(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(m.storage.BaseDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list upload folders: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		dir := filepath.Join(m.storage.BaseDir(), entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			m.logger.Warn("Failed to purge upload folder",
				zap.String("folder_path", dir),
				zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// SanitizeFileName returns a filesystem-safe version of an upload name,
// keeping its extension
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		return "upload"
	}
	return name
}
