package media

import (
	"bytes"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"veridax/pkg/logger"
)

const (
	// Images are normalized to fit inside this square. Smaller images are
	// never upscaled.
	maxDimension = 400

	jpegQuality = 70
)

// Outcome reports which path an image took through the transcoder.
type Outcome string

const (
	// OutcomeProcessed means the image was re-encoded as a normalized JPEG.
	OutcomeProcessed Outcome = "processed"
	// OutcomeKeptOriginal means transcoding failed and the original bytes
	// were kept verbatim. This is a degradation, not an error.
	OutcomeKeptOriginal Outcome = "kept_original"
)

type Result struct {
	Data    []byte
	Outcome Outcome
}

// NormalizeImage decodes an uploaded image, scales it to fit inside
// maxDimension x maxDimension preserving aspect ratio, and re-encodes it as
// JPEG. Decoding or encoding failures are logged and the original bytes are
// returned unchanged; an upload never fails because transcoding did.
func NormalizeImage(data []byte) Result {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("Image transcode skipped, decode failed: %v", err)
		return Result{Data: data, Outcome: OutcomeKeptOriginal}
	}

	img = scaleToFit(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		logger.Warn("Image transcode skipped, JPEG encode failed (source %s): %v", format, err)
		return Result{Data: data, Outcome: OutcomeKeptOriginal}
	}

	return Result{Data: buf.Bytes(), Outcome: OutcomeProcessed}
}

func scaleToFit(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxDimension && height <= maxDimension {
		return img
	}

	scale := float64(maxDimension) / float64(width)
	if s := float64(maxDimension) / float64(height); s < scale {
		scale = s
	}

	targetWidth := int(float64(width) * scale)
	targetHeight := int(float64(height) * scale)
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
