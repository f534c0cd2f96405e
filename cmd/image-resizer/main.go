package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/batch"
	"github.com/aliskhannn/image-resizer/internal/config"
	"github.com/aliskhannn/image-resizer/internal/executor"
	"github.com/aliskhannn/image-resizer/internal/model"
	"github.com/aliskhannn/image-resizer/internal/processor"
	"github.com/aliskhannn/image-resizer/internal/storage/file"
)

// fileStorage is satisfied by every storage backend.
type fileStorage interface {
	Load(ctx context.Context, path string) (io.ReadCloser, error)
	Save(ctx context.Context, path string, src io.Reader, contentType string) (string, error)
}

func main() {
	flags := pflag.NewFlagSet("image-resizer", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: image-resizer [flags] <input>...\n       image-resizer --serve\n\n")
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "./config/config.yml", "path to the YAML config file")
	serve := flags.Bool("serve", false, "consume batch jobs from Kafka instead of processing arguments")
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	// Context & signals: cancel the run on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.MustLoad(*configPath, flags)

	storage, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	proc := processor.New(storage)
	exec := executor.New(proc)

	if *serve {
		serveJobs(ctx, cfg, exec)
		return
	}

	params, err := paramsFromConfig(cfg.Resize)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	code := runCLI(ctx, os.Stdout, proc, exec, params, flags.Args())
	stop()
	os.Exit(code)
}

// newStorage builds the configured storage backend.
func newStorage(ctx context.Context, cfg config.Storage) (fileStorage, error) {
	switch cfg.Backend {
	case config.StorageMinIO:
		return file.NewMinIO(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.BucketName, cfg.UseSSL)
	default:
		return file.NewLocal(cfg.BasePath), nil
	}
}

// paramsFromConfig turns the configured defaults into batch parameters.
func paramsFromConfig(r config.Resize) (batch.Params, error) {
	format, err := model.ParseFormat(r.Format)
	if err != nil {
		return batch.Params{}, fmt.Errorf("invalid format: %w", err)
	}

	return batch.Params{
		Width:            r.Width,
		Height:           r.Height,
		KeepAspect:       r.KeepAspect,
		Quality:          r.Quality,
		Format:           format,
		PreserveMetadata: r.PreserveMetadata,
		OutputDir:        r.OutputDir,
	}, nil
}
