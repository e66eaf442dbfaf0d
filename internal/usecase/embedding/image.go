package embedding

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/kailas-cloud/findfit/internal/domain"
)

// maxImagePixels bounds decoded dimensions so a tiny header cannot claim a huge canvas.
const maxImagePixels = 50_000_000

// ImageInfo describes a decodable image.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// ValidateImage reads the image header. Undecodable data is ErrInvalidInput.
func ValidateImage(data []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("decode image: %w: %w", domain.ErrInvalidInput, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("image has no pixels: %w", domain.ErrInvalidInput)
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		return ImageInfo{}, fmt.Errorf("image %dx%d too large: %w", cfg.Width, cfg.Height, domain.ErrInvalidInput)
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
