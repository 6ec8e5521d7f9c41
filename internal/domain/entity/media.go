package entity

// MediaType is the closed classification of an attachment. "document" is the
// catch-all for every allowed type that is not an image or a video,
// including plain text and office formats.
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeDocument MediaType = "document"
)

// MaxAttachmentBytes is the upload size cap (25 MiB).
const MaxAttachmentBytes = 25 * 1024 * 1024

// allowedMimeTypes maps every accepted declared MIME type to its media
// classification. Anything absent from this table is rejected before any
// processing happens.
var allowedMimeTypes = map[string]MediaType{
	"image/jpeg": MediaTypeImage,
	"image/png":  MediaTypeImage,
	"image/gif":  MediaTypeImage,

	"video/mp4":  MediaTypeVideo,
	"video/mpeg": MediaTypeVideo,

	"application/pdf":    MediaTypeDocument,
	"application/msword": MediaTypeDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": MediaTypeDocument,
	"application/vnd.ms-excel": MediaTypeDocument,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": MediaTypeDocument,
	"text/plain": MediaTypeDocument,
}

// ClassifyMime returns the media classification for a declared MIME type.
// The second return value is false when the type is not allowed.
func ClassifyMime(mimeType string) (MediaType, bool) {
	mediaType, ok := allowedMimeTypes[mimeType]
	return mediaType, ok
}
