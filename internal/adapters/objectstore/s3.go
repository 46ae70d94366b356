package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultRegion is used when S3Config.Region is empty.
const DefaultRegion = "us-east-1"

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the AWS endpoint (MinIO, R2, Spaces).
	Endpoint  string
	PathStyle bool
	// PublicURL is the CDN or bucket base that objects are served from.
	PublicURL string
}

func (c *S3Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("%w: bucket, access key and secret key are required", ErrInvalidConfig)
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return nil
}

// S3Store implements Store on an S3 bucket with public-read objects.
type S3Store struct {
	client *s3.Client
	cfg    S3Config
	base   string
}

// NewS3Store creates an S3Store.
// PRE: cfg has bucket and credentials
// POST: Returns a store whose URLs share the prefix reported by PublicBase
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &S3Store{
		client: s3.New(s3.Options{}, opts...),
		cfg:    cfg,
		base:   publicBase(cfg),
	}, nil
}

// publicBase returns the URL prefix, with trailing slash, of every object.
func publicBase(cfg S3Config) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/") + "/"
	}
	if cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
		if cfg.PathStyle {
			return endpoint + "/" + cfg.Bucket + "/"
		}
		return endpoint + "/"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", cfg.Bucket, cfg.Region)
}

// PublicBase returns the marker prefix shared by every URL this store issues.
func (s *S3Store) PublicBase() string {
	return s.base
}

// Put uploads body as a public-read object.
// PRE: key is non-empty
// POST: Returns PublicBase()+key
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("%w: read body: %v", ErrUploadFailed, err)
		}
		rs = bytes.NewReader(data)
		size = int64(len(data))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        rs,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", wrapS3Error(err, ErrUploadFailed)
	}
	return s.base + key, nil
}

// Delete removes the object stored under key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// Owns reports whether url starts with PublicBase.
func (s *S3Store) Owns(url string) bool {
	return url != "" && strings.HasPrefix(url, s.base)
}

// KeyFromURL returns the object key encoded in url.
func (s *S3Store) KeyFromURL(url string) (string, bool) {
	return keyFromPrefixedURL(s.base, url)
}
