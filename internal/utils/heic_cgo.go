//go:build linux && cgo

package utils

import (
	"bytes"
	"fmt"
	"image"

	"github.com/jdeng/goheif"
)

// HEICSupported reports whether phone photos in HEIC/HEIF can be decoded.
const HEICSupported = true

func decodeHEIC(data []byte) (image.Image, error) {
	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}
	return img, nil
}
