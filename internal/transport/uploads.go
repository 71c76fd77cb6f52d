package transport

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageStore persists uploaded product images under a directory and hands
// back their stored paths in upload order.
type ImageStore struct {
	dir string
}

// NewImageStore creates the uploads directory if needed
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save writes each uploaded file to disk under a fresh uuid-prefixed name.
// The returned paths preserve the upload order.
func (s *ImageStore) Save(files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))

	for _, header := range files {
		src, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}

		name := uuid.New().String() + filepath.Ext(header.Filename)
		path := filepath.Join(s.dir, name)

		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to create image file: %w", err)
		}

		_, err = io.Copy(dst, src)
		src.Close()
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store image file: %w", err)
		}

		paths = append(paths, path)
	}

	return paths, nil
}
