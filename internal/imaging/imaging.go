// Package imaging normalises uploaded photos before they are stored.
package imaging

import "errors"

var ErrUnsupportedImage = errors.New("unsupported image")

// Processor returns the bytes and content type to store for one upload.
type Processor interface {
	Process(data []byte, contentType string) ([]byte, string, error)
}

// Noop stores uploads untouched.
type Noop struct{}

func (Noop) Process(data []byte, contentType string) ([]byte, string, error) {
	return data, contentType, nil
}
