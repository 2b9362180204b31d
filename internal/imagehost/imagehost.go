// Package imagehost uploads photo evidence to a remote image host and
// returns the public URL. An error from Upload means "not uploaded yet";
// callers retry on a later pass.
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/szerviz/internal/model"
)

// Providers accepted by New.
const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
	ProviderNone       = "none"
)

// Uploader sends one photo and returns its remote URL.
type Uploader interface {
	Upload(ctx context.Context, photo model.PhotoEvidence) (string, error)
}

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("image upload is disabled")

// Config selects and configures an Uploader.
type Config struct {
	Provider   string
	Timeout    time.Duration
	Cloudinary CloudinaryConfig
	S3         S3Config
}

// New builds the uploader named by cfg.Provider. An empty provider means
// Cloudinary.
func New(ctx context.Context, cfg Config) (Uploader, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderCloudinary:
		return NewCloudinary(cfg.Cloudinary, timeout)
	case ProviderS3:
		return NewS3(ctx, cfg.S3)
	case ProviderNone:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown upload provider %q (want cloudinary, s3 or none)", cfg.Provider)
	}
}

// Disabled never uploads.
type Disabled struct{}

func (Disabled) Upload(context.Context, model.PhotoEvidence) (string, error) {
	return "", ErrDisabled
}

// localImage is the bytes behind a photo's local reference.
type localImage struct {
	ContentType string
	Data        []byte
}

// readLocal loads the image a photo's localUrl points at. Plain paths and
// file:// URLs are supported.
func readLocal(p model.PhotoEvidence) (localImage, error) {
	path := strings.TrimPrefix(p.LocalURL, "file://")
	if path == "" {
		return localImage{}, fmt.Errorf("photo %s has no local image", p.ID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return localImage{}, fmt.Errorf("read photo %s: %w", p.ID, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return localImage{ContentType: ct, Data: data}, nil
}
