// Package config loads szerviz settings from an optional YAML file,
// SZERVIZ_* environment variables and built-in defaults, in increasing
// order of precedence: defaults, file, environment. Command-line flags are
// applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/szerviz/internal/backup"
	"github.com/roach88/szerviz/internal/imagehost"
	"github.com/roach88/szerviz/internal/lifecycle"
	"github.com/roach88/szerviz/internal/reconcile"
	"github.com/roach88/szerviz/internal/rewrite"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SZERVIZ"

// Config is the resolved configuration.
type Config struct {
	Database        string `mapstructure:"database"`
	Offline         bool   `mapstructure:"offline"`
	BackupThreshold int    `mapstructure:"backup_threshold"`
	ExportPrefix    string `mapstructure:"export_prefix"`
	LicenseKey      string `mapstructure:"license_key"`
	Upload          Upload `mapstructure:"upload"`
	AI              AI     `mapstructure:"ai"`

	// File is the config file that was read, empty when none was.
	File string `mapstructure:"-"`
}

// Upload configures photo reconciliation.
type Upload struct {
	Provider    string        `mapstructure:"provider"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	ProbeAddr   string        `mapstructure:"probe_addr"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Cloudinary  Cloudinary    `mapstructure:"cloudinary"`
	S3          S3            `mapstructure:"s3"`
}

type Cloudinary struct {
	CloudName string `mapstructure:"cloud_name"`
	Preset    string `mapstructure:"preset"`
	Endpoint  string `mapstructure:"endpoint"`
}

type S3 struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Prefix        string `mapstructure:"prefix"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	Endpoint      string `mapstructure:"endpoint"`
}

// AI configures the text rewrite collaborator. An empty key disables it.
type AI struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// DefaultFile returns $HOME/.config/szerviz/config.yaml.
func DefaultFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "szerviz", "config.yaml")
}

// DefaultDatabase returns $HOME/.local/share/szerviz/szerviz.db, or a
// file in the working directory when the home directory is unknown.
func DefaultDatabase() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "szerviz.db"
	}
	return filepath.Join(home, ".local", "share", "szerviz", "szerviz.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", DefaultDatabase())
	v.SetDefault("offline", false)
	v.SetDefault("backup_threshold", lifecycle.DefaultBackupThreshold)
	v.SetDefault("export_prefix", backup.DefaultPrefix)
	v.SetDefault("license_key", "")

	v.SetDefault("upload.provider", imagehost.ProviderCloudinary)
	v.SetDefault("upload.max_attempts", reconcile.DefaultMaxAttempts)
	v.SetDefault("upload.probe_addr", reconcile.DefaultProbeAddr)
	v.SetDefault("upload.timeout", 30*time.Second)
	v.SetDefault("upload.cloudinary.cloud_name", imagehost.DefaultCloudName)
	v.SetDefault("upload.cloudinary.preset", imagehost.DefaultUploadPreset)
	v.SetDefault("upload.cloudinary.endpoint", imagehost.DefaultCloudinaryEndpoint)
	v.SetDefault("upload.s3.bucket", "")
	v.SetDefault("upload.s3.region", "eu-central-1")
	v.SetDefault("upload.s3.prefix", "")
	v.SetDefault("upload.s3.public_base_url", "")
	v.SetDefault("upload.s3.endpoint", "")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", rewrite.DefaultModel)
}

// Load resolves the configuration. An explicit path must exist; with an
// empty path the default file is read only if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		if def := DefaultFile(); def != "" {
			if _, err := os.Stat(def); err == nil {
				file = def
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database: must not be empty"))
	}
	if c.BackupThreshold < 1 {
		errs = append(errs, fmt.Errorf("backup_threshold: must be at least 1, got %d", c.BackupThreshold))
	}
	if c.Upload.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("upload.max_attempts: must be at least 1, got %d", c.Upload.MaxAttempts))
	}
	switch strings.ToLower(c.Upload.Provider) {
	case imagehost.ProviderCloudinary, imagehost.ProviderS3, imagehost.ProviderNone:
	default:
		errs = append(errs, fmt.Errorf("upload.provider: unknown provider %q", c.Upload.Provider))
	}
	if strings.EqualFold(c.Upload.Provider, imagehost.ProviderS3) && c.Upload.S3.Bucket == "" {
		errs = append(errs, errors.New("upload.s3.bucket: required when provider is s3"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ImageHost returns the uploader configuration.
func (c *Config) ImageHost() imagehost.Config {
	return imagehost.Config{
		Provider: c.Upload.Provider,
		Timeout:  c.Upload.Timeout,
		Cloudinary: imagehost.CloudinaryConfig{
			CloudName: c.Upload.Cloudinary.CloudName,
			Preset:    c.Upload.Cloudinary.Preset,
			Endpoint:  c.Upload.Cloudinary.Endpoint,
		},
		S3: imagehost.S3Config{
			Bucket:        c.Upload.S3.Bucket,
			Region:        c.Upload.S3.Region,
			Prefix:        c.Upload.S3.Prefix,
			PublicBaseURL: c.Upload.S3.PublicBaseURL,
			Endpoint:      c.Upload.S3.Endpoint,
		},
	}
}
