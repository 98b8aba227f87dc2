// Package objectstore issues presigned URLs for image objects kept in an
// S3-compatible bucket. Image bytes never pass through the API process:
// clients upload and download directly with the URLs handed out here, and
// only the object key (the image ref) is stored on users and places.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/phrazzld/places-api/internal/config"
)

// Image ref prefixes.
const (
	PrefixPlaces = "places"
	PrefixUsers  = "users"
)

var (
	// ErrInvalidRef is returned for refs outside the known prefixes or with
	// path traversal segments.
	ErrInvalidRef = errors.New("invalid image reference")

	// ErrUnsupportedType is returned for content types that are not images
	// we accept.
	ErrUnsupportedType = errors.New("unsupported image content type")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Presigner is the subset of *s3.PresignClient used by Store.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Upload describes a presigned upload.
type Upload struct {
	Ref       string    `json:"image"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store hands out presigned URLs for one bucket.
type Store struct {
	presigner Presigner
	bucket    string
	ttl       time.Duration
	now       func() time.Time
}

// New builds a Store from cfg. Static credentials are used when configured,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket cannot be empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithPresigner(s3.NewPresignClient(client), cfg.Bucket, cfg.PresignTTL), nil
}

// NewWithPresigner builds a Store around an existing presigner.
func NewWithPresigner(p Presigner, bucket string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{presigner: p, bucket: bucket, ttl: ttl, now: time.Now}
}

// PresignUpload allocates a fresh ref under prefix and returns a URL that
// accepts a PUT of contentType to it.
func (s *Store) PresignUpload(ctx context.Context, prefix, contentType string) (*Upload, error) {
	if prefix != PrefixPlaces && prefix != PrefixUsers {
		return nil, fmt.Errorf("%w: unknown prefix %q", ErrInvalidRef, prefix)
	}
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	ref := prefix + "/" + uuid.NewString() + ext
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ref),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &Upload{
		Ref:       ref,
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}, nil
}

// PresignDownload returns a URL that serves the object at ref.
func (s *Store) PresignDownload(ctx context.Context, ref string) (string, error) {
	if err := ValidateRef(ref); err != nil {
		return "", err
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, nil
}

// ValidateRef checks that ref is a clean key under a known prefix.
func ValidateRef(ref string) error {
	if ref == "" || path.Clean(ref) != ref || strings.Contains(ref, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	prefix, name, ok := strings.Cut(ref, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if prefix != PrefixPlaces && prefix != PrefixUsers {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}
