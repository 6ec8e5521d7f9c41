package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"veridax/internal/domain/service"
)

// LocalStorageClient writes uploads to a directory on disk and serves them
// under a relative URL prefix. Used in development and tests when no bucket
// is configured.
type LocalStorageClient struct {
	dir       string
	urlPrefix string
}

func NewLocalStorageClient(dir, urlPrefix string) (*LocalStorageClient, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %v", err)
	}

	return &LocalStorageClient{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

func (c *LocalStorageClient) Store(ctx context.Context, objectName, contentType string, content io.Reader) (*service.UploadResult, error) {
	path := filepath.Join(c.dir, filepath.Base(objectName))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %v", err)
	}

	size, err := io.Copy(f, content)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %v", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %v", err)
	}

	return &service.UploadResult{
		URL:        c.urlPrefix + "/" + filepath.Base(objectName),
		ObjectName: objectName,
		Size:       size,
	}, nil
}

func (c *LocalStorageClient) Delete(ctx context.Context, objectName string) error {
	return os.Remove(filepath.Join(c.dir, filepath.Base(objectName)))
}

func (c *LocalStorageClient) Close() error {
	return nil
}
