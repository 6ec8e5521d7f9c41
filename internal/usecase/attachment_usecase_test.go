package usecase

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridax/internal/domain/entity"
	"veridax/internal/domain/service"
	"veridax/internal/infrastructure/media"
	"veridax/pkg/errors"
)

// fakeStorage records stored objects in memory.
type fakeStorage struct {
	objects map[string][]byte
	types   map[string]string
	urlBase string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		urlBase: "/uploads",
	}
}

func (s *fakeStorage) Store(ctx context.Context, objectName, contentType string, content io.Reader) (*service.UploadResult, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	s.objects[objectName] = data
	s.types[objectName] = contentType
	return &service.UploadResult{
		URL:        s.urlBase + "/" + objectName,
		ObjectName: objectName,
		Size:       int64(len(data)),
	}, nil
}

func (s *fakeStorage) Delete(ctx context.Context, objectName string) error {
	delete(s.objects, objectName)
	delete(s.types, objectName)
	return nil
}

func (s *fakeStorage) Close() error { return nil }

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIngestRejectsUnsupportedMediaType(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	_, err := uc.Ingest(context.Background(), IngestInput{
		Content:  strings.NewReader("binary"),
		MimeType: "application/x-executable",
		Filename: "malware.exe",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "UNSUPPORTED_MEDIA_TYPE"))
	assert.Empty(t, storage.objects)
}

func TestIngestRejectsOversizedDeclaredSize(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	_, err := uc.Ingest(context.Background(), IngestInput{
		Content:  strings.NewReader("x"),
		Size:     26 * 1024 * 1024,
		MimeType: "application/pdf",
		Filename: "big.pdf",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "PAYLOAD_TOO_LARGE"))
	assert.Empty(t, storage.objects)
}

func TestIngestRejectsOversizedStream(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	oversized := bytes.Repeat([]byte{'a'}, int(entity.MaxAttachmentBytes)+1)

	_, err := uc.Ingest(context.Background(), IngestInput{
		Content:  bytes.NewReader(oversized),
		MimeType: "text/plain",
		Filename: "huge.txt",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, "PAYLOAD_TOO_LARGE"))
	assert.Empty(t, storage.objects, "oversized upload must not leave a stored file")
}

func TestIngestHonorsConfiguredCap(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, 1024)

	_, err := uc.Ingest(context.Background(), IngestInput{
		Content:  bytes.NewReader(bytes.Repeat([]byte{'a'}, 2048)),
		MimeType: "text/plain",
		Filename: "big.txt",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "PAYLOAD_TOO_LARGE"))
	assert.Empty(t, storage.objects)

	result, err := uc.Ingest(context.Background(), IngestInput{
		Content:  strings.NewReader("small"),
		MimeType: "text/plain",
		Filename: "small.txt",
	})
	require.NoError(t, err)
	assert.Len(t, storage.objects, 1)
	assert.Equal(t, entity.MediaTypeDocument, result.MediaType)
}

func TestDiscardRemovesStoredObject(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	result, err := uc.Ingest(context.Background(), IngestInput{
		Content:  strings.NewReader("orphan"),
		MimeType: "text/plain",
		Filename: "orphan.txt",
	})
	require.NoError(t, err)
	require.Len(t, storage.objects, 1)

	uc.Discard(context.Background(), result.StoredFilename)
	assert.Empty(t, storage.objects)
}

func TestIngestAcceptsAllowedSizeJustUnderCap(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	payload := bytes.Repeat([]byte{'a'}, 24*1024*1024)

	result, err := uc.Ingest(context.Background(), IngestInput{
		Content:  bytes.NewReader(payload),
		Size:     int64(len(payload)),
		MimeType: "text/plain",
		Filename: "notes.txt",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.MediaTypeDocument, result.MediaType)
	assert.True(t, strings.HasSuffix(result.StoredFilename, ".txt"))
	assert.Len(t, storage.objects[result.StoredFilename], len(payload))
}

func TestIngestNormalizesImages(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	result, err := uc.Ingest(context.Background(), IngestInput{
		Content:  bytes.NewReader(pngBytes(t, 2000, 1000)),
		MimeType: "image/png",
		Filename: "photo.png",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.MediaTypeImage, result.MediaType)
	assert.Equal(t, media.OutcomeProcessed, result.Transcode)
	assert.True(t, strings.HasSuffix(result.StoredFilename, ".jpg"), "images are always stored as .jpg")
	assert.Equal(t, "image/jpeg", storage.types[result.StoredFilename])

	decoded, format, err := image.Decode(bytes.NewReader(storage.objects[result.StoredFilename]))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), 400)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), 250)
}

func TestIngestKeepsOriginalBytesWhenTranscodeFails(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	corrupt := []byte("declared as png but not decodable")

	result, err := uc.Ingest(context.Background(), IngestInput{
		Content:  bytes.NewReader(corrupt),
		MimeType: "image/png",
		Filename: "broken.png",
	})

	require.NoError(t, err, "transcode failure must not fail the upload")
	assert.Equal(t, media.OutcomeKeptOriginal, result.Transcode)
	assert.Equal(t, corrupt, storage.objects[result.StoredFilename])
	assert.Equal(t, "image/png", storage.types[result.StoredFilename])
}

func TestIngestPreservesDocumentExtension(t *testing.T) {
	storage := newFakeStorage()
	uc := NewAttachmentUseCase(storage, entity.MaxAttachmentBytes)

	result, err := uc.Ingest(context.Background(), IngestInput{
		Content:  strings.NewReader("%PDF-1.4"),
		MimeType: "application/pdf",
		Filename: "Report.PDF",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.MediaTypeDocument, result.MediaType)
	assert.True(t, strings.HasSuffix(result.StoredFilename, ".pdf"))
	assert.NotEmpty(t, result.PublicURL)
}
