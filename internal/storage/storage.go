// Package storage puts contract files in object storage and hands out public
// or signed URLs for them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ObjectStore is the object storage the application needs. Paths are
// relative to the bucket.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string, upsert bool) error
	PublicURL(bucket, path string) string
	SignedURL(ctx context.Context, bucket, path string, expiry time.Duration) (string, error)
	Remove(ctx context.Context, bucket string, paths ...string) error
}

var ErrNoCandidates = errors.New("no storage path candidates")

// ResolveSignedURL signs the first candidate path the store accepts. When
// every candidate fails the errors are joined into one.
func ResolveSignedURL(ctx context.Context, store ObjectStore, bucket string, candidates []string, expiry time.Duration) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}

	errs := make([]error, 0, len(candidates))
	for _, candidate := range candidates {
		url, err := store.SignedURL(ctx, bucket, candidate, expiry)
		if err == nil {
			return url, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", candidate, err))
	}

	return "", fmt.Errorf("failed to sign any of %s: %w", strings.Join(candidates, ", "), errors.Join(errs...))
}
