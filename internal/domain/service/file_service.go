package service

import (
	"context"
	"io"
)

type UploadResult struct {
	URL        string
	ObjectName string
	Size       int64
}

// FileStorageService is durable blob storage addressable by object name.
// The attachment pipeline decides the object name; implementations only
// write bytes and return the public URL.
type FileStorageService interface {
	Store(ctx context.Context, objectName, contentType string, content io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, objectName string) error
	Close() error
}
