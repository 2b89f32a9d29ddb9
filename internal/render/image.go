// Package render draws view chrome (time scale and labels) and encodes
// rendered views.
package render

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

type ImageFormat string

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	jpegQuality = 98
)

// ParseImageFormat accepts png, jpeg and jpg in any case.
func ParseImageFormat(name string) (ImageFormat, error) {
	switch strings.ToLower(name) {
	case "png":
		return ImagePNG, nil
	case "jpeg", "jpg":
		return ImageJPEG, nil
	}
	return "", fmt.Errorf("unsupported image format %q", name)
}

// ImageFormatFromFilename picks the format from the file extension,
// defaulting to PNG.
func ImageFormatFromFilename(path string) ImageFormat {
	if f, err := ParseImageFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return ImagePNG
}

// Encode writes img to w in format.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case ImagePNG:
		return png.Encode(w, img)
	case ImageJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// Hz formats a frequency with an SI prefix, e.g. "2.4 MHz".
func Hz(v float64) string {
	fract, suffix := humanize.ComputeSI(v)
	return fmt.Sprintf("%s %sHz", humanize.FtoaWithDigits(fract, 3), suffix)
}
