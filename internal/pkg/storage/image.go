package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// ImageProcessor derives resized copies of uploaded images.
type ImageProcessor struct {
	quality int
}

// NewImageProcessor creates an ImageProcessor encoding JPEGs at quality 80.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{quality: 80}
}

// GenerateThumbnail fits the image into maxWidth x maxHeight and encodes it as JPEG.
func (p *ImageProcessor) GenerateThumbnail(content io.Reader, maxWidth, maxHeight int) (io.Reader, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return p.encode(imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos))
}

// SquareCrop crops the image around its centre to a size x size square,
// which is how avatars are stored.
func (p *ImageProcessor) SquareCrop(content io.Reader, size int) (io.Reader, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return p.encode(imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos))
}

func (p *ImageProcessor) encode(img image.Image) (io.Reader, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf, nil
}
