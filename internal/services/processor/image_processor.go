package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-resizer/internal/resolver"

	// imaging registers gif, jpeg, png, bmp and tiff; browsers also take webp.
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxFileSize = 10 << 20 // 10MB
	DefaultMaxPixels   = 100_000_000
)

var (
	ErrDecodeFailure   = errors.New("decode failure")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)

type Options struct {
	MaxFileSize  int64
	MaxPixels    int64
	AllowedTypes []string
}

// Decoded is an uploaded image ready to be resized.
type Decoded struct {
	Image       image.Image
	Format      string
	ContentType string
	Size        resolver.Dimensions
	FileSize    int64
}

type ImageProcessor struct {
	opts Options
}

func NewImageProcessor(opts Options) *ImageProcessor {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &ImageProcessor{opts: opts}
}

// Decode reads one uploaded file. Orientation metadata is applied so the
// reported size matches what a viewer displays.
func (p *ImageProcessor) Decode(r io.Reader) (*Decoded, error) {
	data, err := p.readLimited(r)
	if err != nil {
		return nil, err
	}

	contentType, err := p.ValidateImage(data)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	_, format, _ := image.DecodeConfig(bytes.NewReader(data))
	bounds := img.Bounds()

	return &Decoded{
		Image:       img,
		Format:      format,
		ContentType: contentType,
		Size:        resolver.Dimensions{Width: bounds.Dx(), Height: bounds.Dy()},
		FileSize:    int64(len(data)),
	}, nil
}

// Export rasterises img at size and encodes it as JPEG at quality (1-100).
func (p *ImageProcessor) Export(img image.Image, size resolver.Dimensions, quality int) (*bytes.Buffer, error) {
	if img == nil {
		return nil, fmt.Errorf("no source image")
	}
	if !size.Valid() {
		return nil, fmt.Errorf("invalid target size %dx%d", size.Width, size.Height)
	}
	if size.Width > resolver.MaxDimension || size.Height > resolver.MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels per side", ErrTooLarge, size.Width, size.Height, resolver.MaxDimension)
	}
	if p.exceedsPixels(size.Width, size.Height) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, size.Width, size.Height, p.opts.MaxPixels)
	}

	resized := p.resizeImage(img, size)

	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, resized, p.getQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buffer, nil
}

func (p *ImageProcessor) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.opts.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > p.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: file exceeds maximum allowed size %d", ErrTooLarge, p.opts.MaxFileSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrDecodeFailure)
	}
	return data, nil
}

// exceedsPixels compares w*h with MaxPixels without multiplying, so huge
// sides cannot wrap around. Both sides must be positive.
func (p *ImageProcessor) exceedsPixels(w, h int) bool {
	return int64(w) > p.opts.MaxPixels/int64(h)
}

func (p *ImageProcessor) getQuality(quality int) int {
	if quality <= 0 {
		return resolver.DefaultQuality
	}
	return min(resolver.MaxQuality, max(resolver.MinQuality, quality))
}
