package processor

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, solid(w, h, color.RGBA{G: 255, A: 255}), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, solid(w, h, color.RGBA{R: 255, A: 255})))
	return buf.Bytes()
}

// withPNGExif inserts an eXIf chunk right after IHDR.
func withPNGExif(t *testing.T, data, exif []byte) []byte {
	t.Helper()
	ihdrEnd := len(pngMagic) + 8 + 13 + 4

	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(exif)))
	body := append([]byte("eXIf"), exif...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(body))

	out := append([]byte{}, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...)
}

func TestJPEGExifRoundTrip(t *testing.T) {
	src := jpegBytes(t, 4, 4)
	assert.Nil(t, ExtractMetadata(src))

	tagged, err := embedJPEGExif(src, sampleExif)
	require.NoError(t, err)
	assert.Equal(t, sampleExif, ExtractMetadata(tagged))

	// the spliced stream is still a valid JPEG
	img, err := jpeg.Decode(bytes.NewReader(tagged))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestEmbedJPEGExif_TooLarge(t *testing.T) {
	_, err := embedJPEGExif(jpegBytes(t, 2, 2), make([]byte, maxSegmentLen))
	assert.ErrorIs(t, err, ErrEncode)
}

func TestEmbedJPEGExif_NotJPEG(t *testing.T) {
	_, err := embedJPEGExif([]byte("nope"), sampleExif)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestExtractMetadata_PNG(t *testing.T) {
	plain := pngBytes(t, 3, 3)
	assert.Nil(t, ExtractMetadata(plain))

	tagged := withPNGExif(t, plain, sampleExif)
	assert.Equal(t, sampleExif, ExtractMetadata(tagged))

	_, err := png.Decode(bytes.NewReader(tagged))
	require.NoError(t, err)
}

func TestExtractMetadata_Garbage(t *testing.T) {
	assert.Nil(t, ExtractMetadata(nil))
	assert.Nil(t, ExtractMetadata([]byte("plain text")))
	assert.Nil(t, ExtractMetadata([]byte{0xFF, 0xD8, 0xFF, 0xE1, 0xFF}))
}
