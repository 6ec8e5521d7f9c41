package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeImageScalesDown(t *testing.T) {
	result := NormalizeImage(encodePNG(t, 2000, 1000))

	require.Equal(t, OutcomeProcessed, result.Outcome)

	decoded, format, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 200, decoded.Bounds().Dy())
}

func TestNormalizeImagePreservesAspectRatio(t *testing.T) {
	result := NormalizeImage(encodePNG(t, 1000, 2000))

	require.Equal(t, OutcomeProcessed, result.Outcome)

	decoded, _, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
	assert.Equal(t, 400, decoded.Bounds().Dy())
}

func TestNormalizeImageNeverUpscales(t *testing.T) {
	result := NormalizeImage(encodePNG(t, 100, 100))

	require.Equal(t, OutcomeProcessed, result.Outcome)

	decoded, format, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 100, decoded.Bounds().Dy())
}

func TestNormalizeImageAcceptsJPEGSource(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	result := NormalizeImage(buf.Bytes())

	require.Equal(t, OutcomeProcessed, result.Outcome)

	decoded, _, err := image.Decode(bytes.NewReader(result.Data))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 300, decoded.Bounds().Dy())
}

func TestNormalizeImageKeepsOriginalOnDecodeFailure(t *testing.T) {
	original := []byte("definitely not an image")

	result := NormalizeImage(original)

	assert.Equal(t, OutcomeKeptOriginal, result.Outcome)
	assert.Equal(t, original, result.Data)
}
