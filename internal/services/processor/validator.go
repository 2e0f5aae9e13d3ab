package processor

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	"github.com/phambaophuc/image-resizer/pkg/utils"
)

// ValidateImage sniffs the content type and checks the declared pixel count
// before anything is fully decoded.
func (p *ImageProcessor) ValidateImage(data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	if !p.isAllowedType(contentType) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: image has no pixels", ErrDecodeFailure)
	}
	if p.exceedsPixels(cfg.Width, cfg.Height) {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, p.opts.MaxPixels)
	}

	return contentType, nil
}

func (p *ImageProcessor) isAllowedType(contentType string) bool {
	if len(p.opts.AllowedTypes) == 0 {
		return utils.IsValidImageType(contentType)
	}
	return utils.ContainsType(p.opts.AllowedTypes, contentType)
}
