package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"veridax/internal/domain/entity"
	"veridax/internal/domain/service"
	"veridax/internal/infrastructure/media"
	"veridax/pkg/errors"
	"veridax/pkg/logger"
)

// AttachmentUseCase turns a raw upload into a stored, size- and type-bounded,
// optionally transcoded blob addressable by URL. It knows nothing about
// conversations.
type AttachmentUseCase struct {
	storage  service.FileStorageService
	maxBytes int64
}

// NewAttachmentUseCase builds the pipeline with the given upload size cap.
// A non-positive maxBytes falls back to the default cap.
func NewAttachmentUseCase(storage service.FileStorageService, maxBytes int64) *AttachmentUseCase {
	if maxBytes <= 0 {
		maxBytes = entity.MaxAttachmentBytes
	}

	return &AttachmentUseCase{
		storage:  storage,
		maxBytes: maxBytes,
	}
}

type IngestInput struct {
	Content  io.Reader
	Size     int64 // declared size, 0 if unknown
	MimeType string
	Filename string
}

type IngestResult struct {
	StoredFilename string
	PublicURL      string
	MediaType      entity.MediaType
	Transcode      media.Outcome // set for images only
}

// Ingest validates, classifies, optionally transcodes and stores an upload.
// Images are always normalized to a .jpg object; other types keep their
// original extension. Nothing is stored when the upload is rejected.
func (uc *AttachmentUseCase) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	mediaType, ok := entity.ClassifyMime(input.MimeType)
	if !ok {
		return nil, errors.UnsupportedMediaType(fmt.Sprintf("File type %s is not supported", input.MimeType), nil)
	}

	if input.Size > uc.maxBytes {
		return nil, uc.tooLargeError()
	}

	objectName := generateObjectName(input.Filename, mediaType)

	if mediaType == entity.MediaTypeImage {
		return uc.ingestImage(ctx, input, objectName)
	}

	// Non-images stream straight through to storage; the declared size check
	// above catches honest oversized uploads before buffering, and the
	// post-write check catches the rest.
	result, err := uc.storage.Store(ctx, objectName, input.MimeType, io.LimitReader(input.Content, uc.maxBytes+1))
	if err != nil {
		return nil, errors.Internal("Failed to store attachment", err)
	}
	if result.Size > uc.maxBytes {
		if err := uc.storage.Delete(ctx, objectName); err != nil {
			logger.Warn("Failed to remove oversized upload %s: %v", objectName, err)
		}
		return nil, uc.tooLargeError()
	}

	return &IngestResult{
		StoredFilename: objectName,
		PublicURL:      result.URL,
		MediaType:      mediaType,
	}, nil
}

func (uc *AttachmentUseCase) ingestImage(ctx context.Context, input IngestInput, objectName string) (*IngestResult, error) {
	data, err := io.ReadAll(io.LimitReader(input.Content, uc.maxBytes+1))
	if err != nil {
		return nil, errors.Internal("Failed to read upload", err)
	}
	if int64(len(data)) > uc.maxBytes {
		return nil, uc.tooLargeError()
	}

	transcoded := media.NormalizeImage(data)

	contentType := input.MimeType
	if transcoded.Outcome == media.OutcomeProcessed {
		contentType = "image/jpeg"
	}

	result, err := uc.storage.Store(ctx, objectName, contentType, bytes.NewReader(transcoded.Data))
	if err != nil {
		return nil, errors.Internal("Failed to store attachment", err)
	}

	return &IngestResult{
		StoredFilename: objectName,
		PublicURL:      result.URL,
		MediaType:      entity.MediaTypeImage,
		Transcode:      transcoded.Outcome,
	}, nil
}

// Discard removes a previously ingested object. Used when the message
// append fails after the blob was already stored, so rejected sends leave
// no orphaned files behind.
func (uc *AttachmentUseCase) Discard(ctx context.Context, storedFilename string) {
	if err := uc.storage.Delete(ctx, storedFilename); err != nil {
		logger.Warn("Failed to remove orphaned upload %s: %v", storedFilename, err)
	}
}

func (uc *AttachmentUseCase) tooLargeError() error {
	return errors.PayloadTooLarge(fmt.Sprintf("File exceeds the %d MiB upload limit", uc.maxBytes/(1024*1024)), nil)
}

// generateObjectName builds a collision-resistant filename from a time
// prefix and a random suffix. Images always get a .jpg extension; other
// types keep the original one.
func generateObjectName(originalFilename string, mediaType entity.MediaType) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if mediaType == entity.MediaTypeImage {
		ext = ".jpg"
	} else if ext == "" {
		ext = ".bin"
	}

	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.New().String(), ext)
}
