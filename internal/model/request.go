package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest wraps every validation failure of a ResizeRequest.
var ErrInvalidRequest = errors.New("invalid resize request")

// MaxDimension is the largest width or height a request may ask for.
const MaxDimension = 20000

var validate = validator.New(validator.WithRequiredStructEnabled())

// ResizeRequest describes a single resize job. It is built by the caller
// before submission and never mutated afterwards.
type ResizeRequest struct {
	InputPath        string `json:"input_path" validate:"required"`
	OutputPath       string `json:"output_path" validate:"required"`
	Width            int    `json:"width" validate:"min=1,max=20000"`
	Height           int    `json:"height" validate:"min=1,max=20000"`
	KeepAspect       bool   `json:"keep_aspect"`
	Quality          int    `json:"quality" validate:"min=1,max=100"`
	Format           Format `json:"format" validate:"oneof=JPEG PNG WEBP"`
	PreserveMetadata bool   `json:"preserve_metadata"`
}

// Validate checks the request against the accepted ranges.
func (r ResizeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}
	return nil
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// describe flattens validator errors into "field: tag" pairs.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += ", "
		}
		msg += fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
	}
	return msg
}
