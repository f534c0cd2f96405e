package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/aliskhannn/image-resizer/internal/model"
)

// fileStorage defines the interface for file storage.
// It allows loading inputs and saving outputs on a backend (e.g., local FS, MinIO).
type fileStorage interface {
	Load(ctx context.Context, path string) (io.ReadCloser, error)
	Save(ctx context.Context, path string, src io.Reader, contentType string) (string, error)
}

// Processor executes resize tasks: decode, resample, encode and write.
type Processor struct {
	fileStorage fileStorage
}

// New creates a new Processor with the given file storage backend.
func New(fs fileStorage) *Processor {
	return &Processor{fileStorage: fs}
}

// Process runs a single resize request and returns the path of the written file.
//
// report, when not nil, is called each time the task enters a new stage.
// The context is checked between stages; a running stage is never interrupted.
// Nothing is written unless decoding and resampling succeeded.
func (p *Processor) Process(ctx context.Context, req model.ResizeRequest, report func(model.Stage)) (string, error) {
	if report == nil {
		report = func(model.Stage) {}
	}

	if !req.Format.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format.String())
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	// Decoding.
	if err := checkpoint(ctx, model.StageDecoding); err != nil {
		return "", err
	}
	report(model.StageDecoding)

	data, src, err := p.decode(ctx, req.InputPath)
	if err != nil {
		return "", err
	}

	// Resampling.
	if err := checkpoint(ctx, model.StageResampling); err != nil {
		return "", err
	}
	report(model.StageResampling)

	b := src.Bounds()
	dims, err := ResolveDimensions(b.Dx(), b.Dy(), req.Width, req.Height, req.KeepAspect)
	if err != nil {
		return "", err
	}
	resized := imaging.Resize(src, dims.Width, dims.Height, imaging.Lanczos)

	var sourceMeta []byte
	if req.PreserveMetadata {
		sourceMeta = ExtractMetadata(data)
	}

	// Encoding.
	if err := checkpoint(ctx, model.StageEncoding); err != nil {
		return "", err
	}
	report(model.StageEncoding)

	params, err := BuildParameters(req.Format, req.Quality, req.PreserveMetadata, sourceMeta)
	if err != nil {
		return "", err
	}

	encoded, err := encode(resized, params)
	if err != nil {
		return "", err
	}

	dst, err := p.fileStorage.Save(ctx, req.OutputPath, bytes.NewReader(encoded), req.Format.ContentType())
	if err != nil {
		return "", fmt.Errorf("%w: failed to save resized image: %w", ErrEncode, err)
	}

	return dst, nil
}

// Probe reads only the header of the input and returns its native size.
func (p *Processor) Probe(ctx context.Context, path string) (model.Dimensions, error) {
	srcReader, err := p.fileStorage.Load(ctx, path)
	if err != nil {
		return model.Dimensions{}, fmt.Errorf("%w: failed to load original image: %w", ErrDecode, err)
	}
	defer srcReader.Close()

	cfg, _, err := image.DecodeConfig(srcReader)
	if err != nil {
		return model.Dimensions{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return model.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// decode loads the original bytes from storage and decodes them.
// The raw bytes are returned as well so metadata can be read from them.
func (p *Processor) decode(ctx context.Context, path string) ([]byte, image.Image, error) {
	srcReader, err := p.fileStorage.Load(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to load original image: %w", ErrDecode, err)
	}
	defer srcReader.Close()

	data, err := io.ReadAll(srcReader)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read original image: %w", ErrDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return data, img, nil
}

// encode serializes img according to params into memory.
func encode(img image.Image, params EncodingParameters) ([]byte, error) {
	buf := bytes.NewBuffer(nil)

	switch params.Format {
	case model.FormatJPEG:
		if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(params.Quality)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		if params.Metadata != nil {
			return embedJPEGExif(buf.Bytes(), params.Metadata)
		}

	case model.FormatPNG:
		level := png.DefaultCompression
		if params.Optimize {
			level = png.BestCompression
		}
		if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(level)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}

	case model.FormatWEBP:
		if err := webp.Encode(buf, img, &webp.Options{Quality: float32(params.Quality)}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncode, err)
		}
		if params.Metadata != nil {
			return embedWebPExif(buf.Bytes(), params.Metadata)
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, params.Format.String())
	}

	return buf.Bytes(), nil
}

// checkpoint stops the task before entering next if the context is done.
func checkpoint(ctx context.Context, next model.Stage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("canceled before %s: %w", next, err)
	}
	return nil
}
