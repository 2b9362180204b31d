package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"

	"github.com/roach88/szerviz/internal/model"
)

// Cloudinary defaults.
const (
	DefaultCloudinaryEndpoint = "https://api.cloudinary.com"
	DefaultCloudName          = "dagkl5gci"
	DefaultUploadPreset       = "Autószervíz"
)

// CloudinaryConfig configures unsigned preset uploads.
type CloudinaryConfig struct {
	CloudName string
	Preset    string
	Endpoint  string
}

// Cloudinary uploads through the unsigned upload API. No API key or
// secret is needed; the preset decides folder and transformations.
type Cloudinary struct {
	cfg     CloudinaryConfig
	cld     *cloudinary.Cloudinary
	timeout time.Duration
}

// NewCloudinary fills defaults for empty fields. A non-positive timeout
// leaves each upload bounded only by its context.
func NewCloudinary(cfg CloudinaryConfig, timeout time.Duration) (*Cloudinary, error) {
	if cfg.CloudName == "" {
		cfg.CloudName = DefaultCloudName
	}
	if cfg.Preset == "" {
		cfg.Preset = DefaultUploadPreset
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultCloudinaryEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	conf, err := config.NewFromParams(cfg.CloudName, "", "")
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	conf.API.UploadPrefix = cfg.Endpoint

	cld, err := cloudinary.NewFromConfiguration(*conf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	return &Cloudinary{cfg: cfg, cld: cld, timeout: timeout}, nil
}

// URL is the upload endpoint.
func (c *Cloudinary) URL() string {
	return fmt.Sprintf("%s/v1_1/%s/image/upload", c.cfg.Endpoint, c.cfg.CloudName)
}

func (c *Cloudinary) Upload(ctx context.Context, p model.PhotoEvidence) (string, error) {
	img, err := readLocal(p)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		UploadPreset: c.cfg.Preset,
		Unsigned:     api.Bool(true),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload photo %s: %w", p.ID, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload photo %s: %s", p.ID, res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", fmt.Errorf("upload photo %s: response has no secure_url", p.ID)
	}
	return res.SecureURL, nil
}
