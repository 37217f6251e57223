//go:build !linux || !cgo

package utils

import "image"

const HEICSupported = false

func decodeHEIC([]byte) (image.Image, error) {
	return nil, ErrHEICUnsupported
}
