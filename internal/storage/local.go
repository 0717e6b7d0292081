package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrExtensionNotAllowed indicates a file type outside the allow-list.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrFileTooLarge indicates the upload exceeds the size cap.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
	// ErrInvalidPath indicates a stored path escaping the storage root.
	ErrInvalidPath = errors.New("invalid stored path")
)

// allowedExtensions is the deliverable format allow-list.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".zip":  true,
}

// StoredFile describes a file after it has been written to disk.
type StoredFile struct {
	Path        string
	SizeBytes   int64
	ContentType string
}

// Store persists and serves uploaded deliverables.
type Store interface {
	Save(groupID uint, docType, fileName string, r io.Reader) (StoredFile, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// LocalStore writes uploads under a single root directory, keyed by group
// and document type. Stored paths are relative to the root.
type LocalStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore constructs the store and ensures the root exists.
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

// Save validates the extension and size, sniffs the content type from the
// bytes themselves, and writes the file under group/<id>/<type>/.
func (s *LocalStore) Save(groupID uint, docType, fileName string, r io.Reader) (StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return StoredFile{}, fmt.Errorf("%w: %s", ErrExtensionNotAllowed, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return StoredFile{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return StoredFile{}, ErrFileTooLarge
	}

	contentType := mimetype.Detect(data).String()

	relDir := filepath.Join(fmt.Sprintf("group_%d", groupID), docType)
	if err := os.MkdirAll(filepath.Join(s.root, relDir), 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("create upload directory: %w", err)
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
	relPath := filepath.Join(relDir, name)
	if err := os.WriteFile(filepath.Join(s.root, relPath), data, 0o644); err != nil {
		return StoredFile{}, fmt.Errorf("write upload: %w", err)
	}

	return StoredFile{
		Path:        relPath,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Open streams a previously stored file. The path must stay inside the root.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Remove deletes a stored file. A missing file is not an error.
func (s *LocalStore) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, cleaned), nil
}
