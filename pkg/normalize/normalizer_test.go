package normalize

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graspmind/graspmind/pkg/types"
)

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNewValidatesSettings(t *testing.T) {
	var invalid *types.InvalidInputError

	_, err := New(0, 85)
	require.ErrorAs(t, err, &invalid)

	_, err = New(1024, 0)
	require.ErrorAs(t, err, &invalid)

	_, err = New(1024, 101)
	require.ErrorAs(t, err, &invalid)

	_, err = New(1024, 85)
	require.NoError(t, err)
}

func TestNormalizeSmallImageIsNoOp(t *testing.T) {
	n, err := New(1024, 85)
	require.NoError(t, err)

	data := pngBytes(t, solidImage(200, 100, color.NRGBA{0, 128, 255, 255}))
	norm, err := n.Normalize(data)
	require.NoError(t, err)

	assert.Equal(t, 1.0, norm.Scale.Factor)
	assert.Equal(t, 200, norm.Scale.WorkingWidth)
	assert.Equal(t, 100, norm.Scale.WorkingHeight)
	assert.Equal(t, 200, norm.Image.Bounds().Dx())
	assert.Equal(t, 100, norm.Image.Bounds().Dy())
}

func TestNormalizeResizesWithinBound(t *testing.T) {
	n, err := New(50, 85)
	require.NoError(t, err)

	data := pngBytes(t, solidImage(200, 100, color.NRGBA{10, 20, 30, 255}))
	norm, err := n.Normalize(data)
	require.NoError(t, err)

	assert.Equal(t, 0.25, norm.Scale.Factor)
	assert.Equal(t, 50, norm.Scale.WorkingWidth)
	assert.Equal(t, 25, norm.Scale.WorkingHeight)
	assert.Equal(t, 200, norm.Scale.OriginalWidth)
	assert.Equal(t, 100, norm.Scale.OriginalHeight)

	decoded, err := jpeg.Decode(bytes.NewReader(norm.JPEG))
	require.NoError(t, err)
	assert.Equal(t, 50, decoded.Bounds().Dx())
	assert.Equal(t, 25, decoded.Bounds().Dy())
}

func TestNormalizeFlattensTransparencyOntoWhite(t *testing.T) {
	n, err := New(1024, 95)
	require.NoError(t, err)

	// Fully transparent pixels must come out white, not black.
	data := pngBytes(t, solidImage(20, 20, color.NRGBA{0, 0, 0, 0}))
	norm, err := n.Normalize(data)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(norm.JPEG))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(10, 10).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestNormalizeRejectsUndecodableData(t *testing.T) {
	n, err := New(1024, 85)
	require.NoError(t, err)

	var unreadable *types.UnreadableImageError
	_, err = n.Normalize([]byte("definitely not an image"))
	require.ErrorAs(t, err, &unreadable)
}

func TestNormalizeFileMissing(t *testing.T) {
	n, err := New(1024, 85)
	require.NoError(t, err)

	var unreadable *types.UnreadableImageError
	_, err = n.NormalizeFile("/nonexistent/path.jpg")
	require.ErrorAs(t, err, &unreadable)
	assert.Equal(t, "/nonexistent/path.jpg", unreadable.Source)
}
