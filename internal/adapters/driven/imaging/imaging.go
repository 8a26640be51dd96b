package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/custodia-labs/pikia/internal/core/domain"
)

// DefaultJPEGQuality is used when encoding thumbnails.
const DefaultJPEGQuality = 85

// DecodeFrame returns the pixel size of the image at path without decoding
// its pixels. Unreadable or unrecognised files wrap domain.ErrAnalysisFailed.
func DecodeFrame(path string) (domain.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("%w: %s: %w", domain.ErrAnalysisFailed, path, err)
	}

	frame := domain.Frame{Width: cfg.Width, Height: cfg.Height}
	if err := frame.Validate(); err != nil {
		return domain.Frame{}, fmt.Errorf("%w: %s (%s): %w", domain.ErrAnalysisFailed, path, format, err)
	}
	return frame, nil
}

// Load decodes the image at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrAnalysisFailed, path, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s: empty image", domain.ErrAnalysisFailed, path)
	}
	return img, nil
}

// FrameOf returns the pixel size of a decoded image.
func FrameOf(img image.Image) domain.Frame {
	b := img.Bounds()
	return domain.Frame{Width: b.Dx(), Height: b.Dy()}
}

// Thumbnail scales img down so its longest side is at most maxSide,
// keeping the aspect ratio. Smaller images and maxSide <= 0 return img.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	return resize.Thumbnail(uint(maxSide), uint(maxSide), img, resize.Lanczos3)
}

// EncodeJPEG encodes img as JPEG.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI encodes img as a base64 JPEG data URI.
func DataURI(img image.Image) (string, error) {
	data, err := EncodeJPEG(img, DefaultJPEGQuality)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
