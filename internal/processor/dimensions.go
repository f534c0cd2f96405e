package processor

import (
	"fmt"

	"github.com/aliskhannn/image-resizer/internal/model"
)

// ResolveDimensions computes the output size for an image of origW x origH.
//
// Without keepAspect the requested size is returned verbatim. With keepAspect the
// image is scaled by min(reqW/origW, reqH/origH) so it fits inside the requested
// box, each side floored and clamped to at least one pixel. The arithmetic is done
// on integers so the bound side always equals its request exactly.
func ResolveDimensions(origW, origH, reqW, reqH int, keepAspect bool) (model.Dimensions, error) {
	if origW <= 0 || origH <= 0 {
		return model.Dimensions{}, fmt.Errorf("%w: %dx%d", ErrInvalidSourceDimensions, origW, origH)
	}

	if !keepAspect {
		return model.Dimensions{Width: reqW, Height: reqH}, nil
	}

	ow, oh := int64(origW), int64(origH)
	rw, rh := int64(reqW), int64(reqH)

	var w, h int64
	// reqW/origW <= reqH/origH, cross-multiplied.
	if rw*oh <= rh*ow {
		w = rw
		h = oh * rw / ow
	} else {
		w = ow * rh / oh
		h = rh
	}

	return model.Dimensions{Width: clampMin1(w), Height: clampMin1(h)}, nil
}

func clampMin1(v int64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
