// Package vips implements imaging.Processor on top of libvips (via bimg).
// Building it requires the libvips headers.
package vips

import (
	"fmt"

	"github.com/h2non/bimg"
	"github.com/petermazzocco/memory-wall/internal/imaging"
)

// Normalizer rotates photos upright according to their EXIF orientation and
// strips metadata such as GPS coordinates.
type Normalizer struct{}

var _ imaging.Processor = Normalizer{}

func (Normalizer) Process(data []byte, contentType string) ([]byte, string, error) {
	img := bimg.NewImage(data)
	kind := img.Type()
	if kind == "unknown" {
		return nil, "", fmt.Errorf("%w: %s", imaging.ErrUnsupportedImage, contentType)
	}
	// HEIC and friends cannot be re-encoded by most libvips builds.
	if !bimg.IsTypeNameSupportedSave(kind) {
		return data, contentType, nil
	}

	out, err := img.Process(bimg.Options{StripMetadata: true})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", imaging.ErrUnsupportedImage, err)
	}

	outType := contentType
	if t := bimg.DetermineImageTypeName(out); t != "unknown" {
		outType = "image/" + t
	}
	return out, outType, nil
}
