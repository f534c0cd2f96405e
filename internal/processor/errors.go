package processor

import (
	"errors"

	"github.com/aliskhannn/image-resizer/internal/model"
)

var (
	// ErrDecode covers unreadable, missing, corrupt or unsupported input files.
	ErrDecode = errors.New("decode image")
	// ErrInvalidSourceDimensions is returned for a decoded image with a non-positive side.
	ErrInvalidSourceDimensions = errors.New("invalid source dimensions")
	// ErrUnsupportedFormat is returned for target formats outside the supported set.
	ErrUnsupportedFormat = model.ErrUnsupportedFormat
	// ErrEncode covers serialization and write failures of the output file.
	ErrEncode = errors.New("encode image")
)
