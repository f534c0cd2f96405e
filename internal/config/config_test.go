package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"), nil)
	require.NoError(t, err)

	assert.Equal(t, Resize{
		Width:            1280,
		Height:           720,
		KeepAspect:       true,
		Quality:          95,
		Format:           "JPEG",
		PreserveMetadata: true,
	}, cfg.Resize)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "resize-reports", cfg.Kafka.ReportsTopic)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Delay)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
resize:
  width: 640
  quality: 70
  format: webp
  keep_aspect: false
storage:
  backend: minio
  bucket_name: photos
kafka:
  brokers: ["a:9092", "b:9092"]
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Resize.Width)
	assert.Equal(t, 720, cfg.Resize.Height)
	assert.Equal(t, 70, cfg.Resize.Quality)
	assert.Equal(t, "webp", cfg.Resize.Format)
	assert.False(t, cfg.Resize.KeepAspect)
	assert.Equal(t, StorageMinIO, cfg.Storage.Backend)
	assert.Equal(t, "photos", cfg.Storage.BucketName)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "resize:\n  width: 640\n")
	t.Setenv("RESIZE_WIDTH", "320")
	t.Setenv("DB_USER", "resizer")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Resize.Width)
	assert.Equal(t, "resizer", cfg.Database.Master.User)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("RESIZE_QUALITY", "50")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--quality=80", "--format=PNG"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Resize.Quality)
	assert.Equal(t, "PNG", cfg.Resize.Format)
	// unchanged flags do not shadow defaults
	assert.Equal(t, 1280, cfg.Resize.Width)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"quality too high", "resize:\n  quality: 101\n"},
		{"width zero", "resize:\n  width: 0\n"},
		{"height too large", "resize:\n  height: 20001\n"},
		{"unknown backend", "storage:\n  backend: ftp\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "resize: [unclosed"), nil)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	n := DatabaseNode{Host: "db", Port: "5432", User: "u", Pass: "p", Name: "reports", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/reports?sslmode=disable", n.DSN())
}
