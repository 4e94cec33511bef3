package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth = 800
	DefaultQuality  = 70

	// MaxSourcePixels bounds the decoded raster (about 160 MB as RGBA).
	MaxSourcePixels = 40_000_000
)

var (
	ErrInvalidDataURL = errors.New("invalid data url")
	ErrImageTooLarge  = errors.New("image dimensions too large")
)

type Normalizer struct {
	MaxWidth int
	Quality  int
}

func New(maxWidth, quality int) *Normalizer {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Normalizer{MaxWidth: maxWidth, Quality: quality}
}

// Pending is an in-flight normalization.
type Pending struct {
	done    chan struct{}
	dataURL string
	err     error
}

// Wait blocks until the normalization finishes.
func (p *Pending) Wait() (string, error) {
	<-p.done
	return p.dataURL, p.err
}

// Resolved returns a Pending that is already finished.
func Resolved(dataURL string, err error) *Pending {
	pending := &Pending{done: make(chan struct{}), dataURL: dataURL, err: err}
	close(pending.done)
	return pending
}

func (n *Normalizer) Start(data []byte) *Pending {
	pending := &Pending{done: make(chan struct{})}
	go func() {
		defer close(pending.done)
		pending.dataURL, pending.err = n.Normalize(data)
	}()
	return pending
}

// Normalize decodes data, scales it down to MaxWidth and re-encodes it as a
// JPEG data URL.
func (n *Normalizer) Normalize(data []byte) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy(), n.MaxWidth)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == bounds.Dx() && height == bounds.Dy() {
		stddraw.Draw(dst, dst.Bounds(), src, bounds.Min, stddraw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.Quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// TargetSize keeps the aspect ratio and never upscales.
func TargetSize(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || width <= maxWidth {
		return width, height
	}
	scaled := height * maxWidth / width
	if scaled < 1 {
		scaled = 1
	}
	return maxWidth, scaled
}

// DecodeDataURL returns the MIME type and payload of a base64 data URL.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: not base64", ErrInvalidDataURL)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return mimeType, data, nil
}
