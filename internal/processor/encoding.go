package processor

import (
	"fmt"

	"github.com/aliskhannn/image-resizer/internal/model"
)

// WebPMaxMethod is the highest libwebp compression-effort level.
const WebPMaxMethod = 6

// EncodingParameters is the format-specific option set used to write one output file.
type EncodingParameters struct {
	Format   model.Format `json:"format"`
	Quality  int          `json:"quality,omitempty"`  // 0 for lossless formats
	Optimize bool         `json:"optimize,omitempty"` // smallest output the encoder can produce
	Method   int          `json:"method,omitempty"`   // WebP compression effort
	Metadata []byte       `json:"-"`                  // EXIF payload, nil when not carried over
}

// BuildParameters derives encoder options from the request settings.
//
// JPEG keeps the requested quality, asks for optimization and carries the source
// EXIF block when preserveMetadata is set and one exists. WEBP keeps the quality,
// uses maximum effort and carries metadata the same way. PNG is lossless: quality
// is dropped, optimization requested, metadata never attached.
func BuildParameters(format model.Format, quality int, preserveMetadata bool, sourceMetadata []byte) (EncodingParameters, error) {
	var meta []byte
	if preserveMetadata && len(sourceMetadata) > 0 {
		meta = sourceMetadata
	}

	switch format {
	case model.FormatJPEG:
		return EncodingParameters{
			Format:   format,
			Quality:  quality,
			Optimize: true,
			Metadata: meta,
		}, nil
	case model.FormatWEBP:
		return EncodingParameters{
			Format:   format,
			Quality:  quality,
			Method:   WebPMaxMethod,
			Metadata: meta,
		}, nil
	case model.FormatPNG:
		return EncodingParameters{
			Format:   format,
			Optimize: true,
		}, nil
	default:
		return EncodingParameters{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}
