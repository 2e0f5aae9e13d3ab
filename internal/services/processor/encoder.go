package processor

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const (
	OutputContentType = "image/jpeg"
	OutputFilename    = "resized-image.jpg"
)

// encodeImage always writes JPEG. Transparent pixels end up black, as they
// do when a canvas is exported without an alpha channel.
func (p *ImageProcessor) encodeImage(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}
