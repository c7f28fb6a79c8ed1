package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StoredFile describes a persisted upload.
type StoredFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MIMEType string `json:"mimeType"`
}

var extensionMIMEs = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// UploadStore persists resume and assignment attachments on disk. Files are
// validated against the MIME allow-list and size ceiling before anything is
// written.
type UploadStore struct {
	baseDir      string
	maxSize      int64
	allowedMIMEs map[string]struct{}
}

// NewUploadStore ensures the base directory exists and returns a handle.
func NewUploadStore(baseDir string, maxSize int64, allowedMIMEs []string) (*UploadStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	if len(allowed) == 0 {
		for _, m := range extensionMIMEs {
			allowed[m] = struct{}{}
		}
	}
	return &UploadStore{baseDir: baseDir, maxSize: maxSize, allowedMIMEs: allowed}, nil
}

// Save validates and writes the upload, returning its stored descriptor. The
// stored name is randomised; the original name only contributes the extension.
func (s *UploadStore) Save(data []byte, originalName string) (*StoredFile, error) {
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("file exceeds maximum size of %d bytes", s.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	mimeType, ok := extensionMIMEs[ext]
	if !ok {
		return nil, fmt.Errorf("file type %q is not allowed", ext)
	}
	if _, ok := s.allowedMIMEs[mimeType]; !ok {
		return nil, fmt.Errorf("mime type %q is not allowed", mimeType)
	}

	filename := uuid.NewString() + ext
	path := filepath.Join(s.baseDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &StoredFile{
		Filename: filename,
		Path:     path,
		Size:     int64(len(data)),
		MIMEType: mimeType,
	}, nil
}

// Open returns a read-only handle for a stored file.
func (s *UploadStore) Open(filename string) (*os.File, error) {
	file, err := os.Open(filepath.Join(s.baseDir, filepath.Base(filename)))
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *UploadStore) Delete(filename string) error {
	path := filepath.Join(s.baseDir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// Exists reports whether a stored file is present on disk.
func (s *UploadStore) Exists(filename string) bool {
	_, err := os.Stat(filepath.Join(s.baseDir, filepath.Base(filename)))
	return err == nil
}
