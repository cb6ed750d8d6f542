// Package media validates and normalises uploaded images before they are
// written to object storage.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxWidth and MaxHeight bound the stored image; larger inputs are
	// scaled down preserving aspect ratio.
	MaxWidth  = 1600
	MaxHeight = 1600

	// MaxSourcePixels bounds the decoded size of an upload, checked against
	// the header before any pixel data is allocated.
	MaxSourcePixels = 40_000_000

	jpegQuality = 85
)

var (
	// ErrUnsupportedImage is returned for payloads that are not a decodable
	// JPEG, PNG, GIF or WebP image.
	ErrUnsupportedImage = errors.New("unsupported image format")
	// ErrImageTooLarge is returned when the header declares more than
	// MaxSourcePixels pixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// Image is a normalised image ready for upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Normalize checks the declared dimensions against MaxSourcePixels, then
// decodes data, applies EXIF orientation, fits it into
// MaxWidth x MaxHeight and re-encodes it. PNG input stays PNG so
// transparency survives; everything else becomes JPEG.
func Normalize(data []byte) (Image, error) {
	format := detectFormat(data)
	if format == "" {
		return Image{}, ErrUnsupportedImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, ErrUnsupportedImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return Image{}, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxWidth || bounds.Dy() > MaxHeight {
		img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
	}

	out, err := encode(img, format)
	if err != nil {
		return Image{}, fmt.Errorf("encode image: %w", err)
	}
	out.Width = img.Bounds().Dx()
	out.Height = img.Bounds().Dy()
	return out, nil
}

func encode(img image.Image, format string) (Image, error) {
	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return Image{}, err
		}
		return Image{Data: buf.Bytes(), ContentType: "image/png", Ext: "png"}, nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, err
	}
	return Image{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: "jpg"}, nil
}

// detectFormat sniffs the payload. TIFF is rejected outright.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}
