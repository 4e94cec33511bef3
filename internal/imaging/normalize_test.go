package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetSize(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"wide image is scaled", 1600, 1200, 800, 600},
		{"small image is unchanged", 400, 300, 400, 300},
		{"exact width is unchanged", 800, 10, 800, 10},
		{"height is truncated", 1000, 333, 800, 266},
		{"height never drops below one", 8000, 2, 800, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := TargetSize(tc.width, tc.height, 800)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestNormalizeScalesDown(t *testing.T) {
	n := New(800, 70)

	dataURL, err := n.Start(pngBytes(t, 1600, 1200)).Wait()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURL, "data:image/jpeg;base64,"))

	cfg := decodeConfig(t, dataURL)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
}

func TestNormalizeKeepsSmallImage(t *testing.T) {
	n := New(0, 0)

	dataURL, err := n.Normalize(pngBytes(t, 400, 300))
	require.NoError(t, err)

	cfg := decodeConfig(t, dataURL)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := New(800, 70).Start([]byte("not an image")).Wait()
	require.Error(t, err)
}

func TestNormalizeRejectsHugeDimensionsBeforeDecoding(t *testing.T) {
	data := withPNGSize(t, pngBytes(t, 4, 4), 30000, 30000)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 30000, cfg.Width)

	_, err = New(800, 70).Start(data).Wait()
	require.ErrorIs(t, err, ErrImageTooLarge)
}

func TestDecodeDataURL(t *testing.T) {
	mimeType, data, err := DecodeDataURL("data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, []byte("hello"), data)

	for _, bad := range []string{"", "image/jpeg;base64,aGVsbG8=", "data:image/jpeg,hello", "data:image/jpeg;base64,***"} {
		_, _, err := DecodeDataURL(bad)
		assert.ErrorIs(t, err, ErrInvalidDataURL, bad)
	}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 7 {
		img.Set(x, height/2, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeConfig(t *testing.T, dataURL string) image.Config {
	t.Helper()
	mimeType, data, err := DecodeDataURL(dataURL)
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", mimeType)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return cfg
}

// withPNGSize rewrites the IHDR dimensions of an encoded PNG and fixes up the
// chunk checksum so only the header lies about the size.
func withPNGSize(t *testing.T, data []byte, width, height uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}
