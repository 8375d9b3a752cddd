package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrInvalidFileType is returned for anything that is not a JPEG or PNG
	ErrInvalidFileType = errors.New("invalid file type, only JPEG, PNG, and JPG are allowed")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ImageStore writes uploaded product images into a fixed directory. Files are
// named by upload timestamp plus the original extension; nothing ever deletes
// them, so files orphaned by product edits or deletes stay on disk.
type ImageStore struct {
	dir string
}

// NewImageStore creates the upload directory if needed and returns a store
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save sniffs the file content, rejects anything that is not JPEG or PNG, and
// writes it to disk. It returns the stored filename.
func (s *ImageStore) Save(file multipart.File, originalName string) (string, error) {
	// Sniff actual content rather than trusting the client's content type
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	if !allowedTypes[mtype.String()] {
		return "", ErrInvalidFileType
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = mtype.Extension()
	}

	filename := fmt.Sprintf("%d%s", time.Now().UnixMilli(), ext)

	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return filename, nil
}

// Dir returns the directory uploads are written to
func (s *ImageStore) Dir() string {
	return s.dir
}
