package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	MenuImageMaxSide   = 1200
	MenuThumbnailSide  = 300
	menuImageQuality   = 85
	menuThumbQuality   = 80
	minMenuImageLength = 12
)

var menuImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/heic": true,
	"image/heif": true,
}

type MenuImage struct {
	Full      []byte
	Thumbnail []byte
	Width     int
	Height    int
	Format    string
}

// ErrHEICUnsupported is returned for HEIC uploads on builds without cgo.
var ErrHEICUnsupported = errors.New("heic decoding not supported in this build")

func ValidateImageContentType(contentType string) bool {
	ct := strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if (ct == "image/heic" || ct == "image/heif") && !HEICSupported {
		return false
	}
	return menuImageContentTypes[ct]
}

func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if isHeifFamily(data) {
		return "image/heic"
	}
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	return http.DetectContentType(sample)
}

func isHeifFamily(data []byte) bool {
	// ISO BMFF: [size:4][ftyp:4][brand:4]
	if len(data) < minMenuImageLength || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1", "heif":
		return true
	default:
		return false
	}
}

func decodeAndAutoRotate(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if isHeifFamily(data) {
			if heicImg, heicErr := decodeHEIC(data); heicErr == nil {
				return heicImg, "heic", nil
			}
		}
		return nil, "", err
	}

	if strings.EqualFold(format, "jpeg") {
		img = applyExifOrientation(data, img)
	}
	return img, format, nil
}

// applyExifOrientation is best effort; a missing or broken EXIF block leaves
// the image untouched.
func applyExifOrientation(data []byte, img image.Image) image.Image {
	ex, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return img
	}
	tag, err := ex.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orient, err := tag.Int(0)
	if err != nil {
		return img
	}
	switch orient {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// EncodeMenuImage produces the two JPEG variants stored for a menu item: the
// full image fitted inside MenuImageMaxSide and a square thumbnail.
func EncodeMenuImage(data []byte) (MenuImage, error) {
	if len(data) == 0 {
		return MenuImage{}, errors.New("empty image")
	}
	img, format, err := decodeAndAutoRotate(data)
	if err != nil {
		return MenuImage{}, err
	}
	b := img.Bounds()

	full, err := encodeJpeg(imaging.Fit(img, MenuImageMaxSide, MenuImageMaxSide, imaging.Lanczos), menuImageQuality)
	if err != nil {
		return MenuImage{}, err
	}
	thumb, err := encodeJpeg(imaging.Fill(img, MenuThumbnailSide, MenuThumbnailSide, imaging.Center, imaging.Lanczos), menuThumbQuality)
	if err != nil {
		return MenuImage{}, err
	}

	return MenuImage{
		Full:      full,
		Thumbnail: thumb,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Format:    format,
	}, nil
}

func encodeJpeg(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
