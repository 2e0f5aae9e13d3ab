package processor

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-resizer/internal/resolver"
)

// resizeImage resamples with Lanczos.
func (p *ImageProcessor) resizeImage(img image.Image, size resolver.Dimensions) image.Image {
	return imaging.Resize(img, size.Width, size.Height, imaging.Lanczos)
}
