package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/image-resizer/internal/batch"
	"github.com/aliskhannn/image-resizer/internal/config"
	"github.com/aliskhannn/image-resizer/internal/executor"
	"github.com/aliskhannn/image-resizer/internal/model"
	"github.com/aliskhannn/image-resizer/internal/processor"
	"github.com/aliskhannn/image-resizer/internal/storage/file"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func setup(t *testing.T) (*processor.Processor, *executor.Executor, batch.Params) {
	t.Helper()
	proc := processor.New(file.NewLocal(""))
	params, err := paramsFromConfig(config.Resize{Width: 20, Height: 20, KeepAspect: true, Quality: 90, Format: "png"})
	require.NoError(t, err)
	return proc, executor.New(proc), params
}

func TestRunCLI_Single(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	writePNG(t, in, 40, 10)

	proc, exec, params := setup(t)
	out := &bytes.Buffer{}

	code := runCLI(context.Background(), out, proc, exec, params, []string{in})
	require.Equal(t, 0, code, out.String())

	dst := filepath.Join(dir, "photo_resized.png")
	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 5, cfg.Height)
	assert.Contains(t, out.String(), "photo.png (40x10)")
	assert.Contains(t, out.String(), dst)
}

func TestRunCLI_BatchWithFailure(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	c := filepath.Join(dir, "c.png")
	writePNG(t, a, 8, 8)
	writePNG(t, c, 8, 8)
	missing := filepath.Join(dir, "b.png")

	proc, exec, params := setup(t)
	params.OutputDir = filepath.Join(dir, "resized")
	out := &bytes.Buffer{}

	code := runCLI(context.Background(), out, proc, exec, params, []string{a, missing, c, a})
	assert.Equal(t, 1, code)

	assert.FileExists(t, filepath.Join(dir, "resized", "a_resized.png"))
	assert.FileExists(t, filepath.Join(dir, "resized", "c_resized.png"))
	assert.NoFileExists(t, filepath.Join(dir, "resized", "b_resized.png"))
	assert.Contains(t, out.String(), "[3/3]")
	assert.Contains(t, out.String(), "done: 2 succeeded, 1 failed")
}

func TestRunCLI_NoInputs(t *testing.T) {
	proc, exec, params := setup(t)
	out := &bytes.Buffer{}

	assert.Equal(t, 1, runCLI(context.Background(), out, proc, exec, params, nil))
	assert.Contains(t, out.String(), "no input files")
}

func TestRunCLI_InvalidRequest(t *testing.T) {
	proc, exec, params := setup(t)
	params.Quality = 0
	out := &bytes.Buffer{}

	assert.Equal(t, 1, runCLI(context.Background(), out, proc, exec, params, []string{"x.png"}))
	assert.Contains(t, out.String(), "Quality")
}

func TestParamsFromConfig(t *testing.T) {
	p, err := paramsFromConfig(config.Resize{Width: 1, Height: 2, Quality: 3, Format: "jpg", OutputDir: "o"})
	require.NoError(t, err)
	assert.Equal(t, model.FormatJPEG, p.Format)
	assert.Equal(t, "o", p.OutputDir)

	_, err = paramsFromConfig(config.Resize{Format: "tiff"})
	assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
}
