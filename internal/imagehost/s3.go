package imagehost

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/roach88/szerviz/internal/model"
)

// S3Config configures uploads to an S3 bucket (or an S3-compatible
// endpoint such as MinIO or LocalStack).
type S3Config struct {
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
	Endpoint      string
}

// PutObjectAPI is the part of the S3 client used here.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores photos as objects and returns their public URL.
type S3 struct {
	client PutObjectAPI
	cfg    S3Config
}

// NewS3 loads the default AWS credential chain for cfg.Region. A
// non-empty cfg.Endpoint overrides the service endpoint and switches to
// path-style addressing.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 upload: bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3WithClient(client, cfg), nil
}

// NewS3WithClient wraps an existing client.
func NewS3WithClient(client PutObjectAPI, cfg S3Config) *S3 {
	return &S3{client: client, cfg: cfg}
}

// Key returns the object key for a photo.
func (s *S3) Key(p model.PhotoEvidence) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimPrefix(p.LocalURL, "file://")))
	if ext == "" {
		ext = ".jpg"
	}
	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return prefix + p.ID + ext
}

// PublicURL returns where an uploaded key can be fetched.
func (s *S3) PublicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func (s *S3) Upload(ctx context.Context, p model.PhotoEvidence) (string, error) {
	img, err := readLocal(p)
	if err != nil {
		return "", err
	}
	key := s.Key(p)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
		Metadata: map[string]string{
			"photo_id": p.ID,
			"source":   string(p.Source),
		},
	})
	if err != nil {
		return "", fmt.Errorf("put photo %s: %w", p.ID, err)
	}
	return s.PublicURL(key), nil
}
