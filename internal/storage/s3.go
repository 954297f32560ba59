package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the part of the S3 client the backend calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Presigner signs GET requests for private objects.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage stores objects in S3 or any S3 compatible endpoint.
type S3Storage struct {
	api       S3API
	presigner Presigner
	endpoint  string
	region    string
}

// NewS3Storage builds the backend from an AWS config. A non-empty endpoint
// switches to path-style addressing against that host.
func NewS3Storage(cfg aws.Config, endpoint string) *S3Storage {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		api:       client,
		presigner: s3.NewPresignClient(client),
		endpoint:  strings.TrimRight(endpoint, "/"),
		region:    cfg.Region,
	}
}

func (s *S3Storage) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string, upsert bool) error {
	key := strings.TrimLeft(path, "/")

	if !upsert {
		_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err == nil {
			return fmt.Errorf("object %s/%s already exists", bucket, key)
		}
	}

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}

	return nil
}

func (s *S3Storage) PublicURL(bucket, path string) string {
	key := (&url.URL{Path: strings.TrimLeft(path, "/")}).EscapedPath()
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, key)
}

func (s *S3Storage) SignedURL(ctx context.Context, bucket, path string, expiry time.Duration) (string, error) {
	key := strings.TrimLeft(path, "/")

	if _, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}); err != nil {
		return "", fmt.Errorf("object %s/%s not found: %w", bucket, key, err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = expiry })
	if err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", bucket, key, err)
	}

	return req.URL, nil
}

func (s *S3Storage) Remove(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	objects := make([]s3types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(strings.TrimLeft(p, "/"))})
	}

	_, err := s.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to remove objects from %s: %w", bucket, err)
	}

	return nil
}
