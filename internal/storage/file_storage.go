// internal/storage/file_storage.go
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size limit
var ErrFileTooLarge = errors.New("file exceeds maximum upload size")

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFile streams content to the specified full path and returns the bytes written
	// Creates parent directories if needed
	SaveFile(fullPath string, content io.Reader) (int64, error)

	// ValidatePath checks path security (no traversal, within base)
	ValidatePath(fullPath string) error
}

// LocalFileStorage implements FileStorage for local filesystem
type LocalFileStorage struct {
	baseDir     string
	maxFileSize int64
	logger      *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage. maxFileSize <= 0 disables the limit.
func NewLocalFileStorage(baseDir string, maxFileSize int64, logger *zap.Logger) *LocalFileStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalFileStorage{
		baseDir:     baseDir,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// BaseDir returns the storage root
func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

// SaveFile writes content to the specified full path
func (s *LocalFileStorage) SaveFile(fullPath string, content io.Reader) (int64, error) {
	if err := s.ValidatePath(fullPath); err != nil {
		return 0, err
	}

	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", parentDir),
			zap.Error(err))
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		s.logger.Error("Failed to create file",
			zap.String("path", fullPath),
			zap.Error(err))
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	src := content
	if s.maxFileSize > 0 {
		src = io.LimitReader(content, s.maxFileSize+1)
	}

	n, err := io.Copy(f, src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && s.maxFileSize > 0 && n > s.maxFileSize {
		err = fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	if err != nil {
		os.Remove(fullPath)
		s.logger.Warn("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		if errors.Is(err, ErrFileTooLarge) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("File saved successfully",
		zap.String("path", fullPath),
		zap.Int64("size", n))

	return n, nil
}

// ValidatePath checks that the path is safe and within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}
