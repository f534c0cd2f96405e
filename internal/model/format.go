package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned for target formats outside JPEG, PNG and WEBP.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format is an output image format.
type Format string

const (
	FormatJPEG Format = "JPEG"
	FormatPNG  Format = "PNG"
	FormatWEBP Format = "WEBP"
)

// ParseFormat maps a user-supplied format name to a Format.
// Matching is case-insensitive and "jpg" is accepted as an alias for JPEG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "JPEG", "JPG":
		return FormatJPEG, nil
	case "PNG":
		return FormatPNG, nil
	case "WEBP":
		return FormatWEBP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWEBP:
		return true
	default:
		return false
	}
}

// Extension returns the file extension (without the dot) used for output files.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	case FormatWEBP:
		return "webp"
	default:
		return ""
	}
}

// ContentType returns the MIME type written alongside objects in remote storage.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWEBP:
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func (f Format) String() string {
	return string(f)
}
