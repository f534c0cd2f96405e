package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"
)

const (
	StorageLocal = "local"
	StorageMinIO = "minio"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Resize   Resize   `mapstructure:"resize"`
	Storage  Storage  `mapstructure:"storage"`
	Database Database `mapstructure:"database"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Retry    Retry    `mapstructure:"retry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP address to listen on in serve mode
}

// Resize holds the default parameters of resize runs.
type Resize struct {
	Width            int    `mapstructure:"width" validate:"min=1,max=20000"`
	Height           int    `mapstructure:"height" validate:"min=1,max=20000"`
	KeepAspect       bool   `mapstructure:"keep_aspect"`
	Quality          int    `mapstructure:"quality" validate:"min=1,max=100"`
	Format           string `mapstructure:"format" validate:"required"`
	PreserveMetadata bool   `mapstructure:"preserve_metadata"`
	OutputDir        string `mapstructure:"output_dir"` // empty: next to each input
}

// Storage holds configuration for the file storage backend.
type Storage struct {
	Backend    string `mapstructure:"backend" validate:"oneof=local minio"`
	BasePath   string `mapstructure:"base_path"` // local backend only
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Database holds database master and slave configuration.
type Database struct {
	Enabled bool           `mapstructure:"enabled"`
	Master  DatabaseNode   `mapstructure:"master"`
	Slaves  []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Kafka holds configuration for the Kafka message queue.
type Kafka struct {
	GroupID      string   `mapstructure:"group_id"`      // Consumer group ID
	Topic        string   `mapstructure:"topic"`         // Topic batch jobs are consumed from
	ReportsTopic string   `mapstructure:"reports_topic"` // Topic finished reports are published to
	Brokers      []string `mapstructure:"brokers"`       // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")

	v.SetDefault("resize.width", 1280)
	v.SetDefault("resize.height", 720)
	v.SetDefault("resize.keep_aspect", true)
	v.SetDefault("resize.quality", 95)
	v.SetDefault("resize.format", "JPEG")
	v.SetDefault("resize.preserve_metadata", true)
	v.SetDefault("resize.output_dir", "")

	v.SetDefault("storage.backend", StorageLocal)
	v.SetDefault("storage.base_path", "")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket_name", "images")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.master.host", "localhost")
	v.SetDefault("database.master.port", "5432")
	v.SetDefault("database.master.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("kafka.group_id", "image-resizer")
	v.SetDefault("kafka.topic", "resize-jobs")
	v.SetDefault("kafka.reports_topic", "resize-reports")
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 500*time.Millisecond)
	v.SetDefault("retry.backoff", 2.0)
}

// bindEnv binds secrets to their conventional environment variables.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",
		"storage.access_key":   "MINIO_ACCESS_KEY",
		"storage.secret_key":   "MINIO_SECRET_KEY",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	return nil
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"width":             "resize.width",
	"height":            "resize.height",
	"keep-aspect":       "resize.keep_aspect",
	"quality":           "resize.quality",
	"format":            "resize.format",
	"preserve-metadata": "resize.preserve_metadata",
	"output-dir":        "resize.output_dir",
	"storage":           "storage.backend",
}

// RegisterFlags adds the flags that override configuration values.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.Int("width", 1280, "target width in pixels")
	flags.Int("height", 720, "target height in pixels")
	flags.Bool("keep-aspect", true, "fit inside width x height keeping the aspect ratio")
	flags.Int("quality", 95, "encoder quality 1-100 (JPEG, WEBP)")
	flags.String("format", "JPEG", "output format: JPEG, PNG or WEBP")
	flags.Bool("preserve-metadata", true, "carry EXIF metadata over to the output")
	flags.String("output-dir", "", "output directory (default: next to each input)")
	flags.String("storage", StorageLocal, "storage backend: local or minio")
}

// Load reads configuration from the YAML file at path, the environment and
// the changed flags, in increasing priority. A missing file is not an
// error: defaults apply. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads the configuration like Load.
// It panics if the configuration cannot be read, unmarshaled or validated.
func MustLoad(path string, flags *pflag.FlagSet) *Config {
	cfg, err := Load(path, flags)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}
