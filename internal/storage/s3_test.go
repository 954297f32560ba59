package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)]; !ok {
		return nil, errors.New("NotFound")
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	for _, o := range params.Delete.Objects {
		f.deleted = append(f.deleted, aws.ToString(o.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &v4.PresignedHTTPRequest{
		URL: "https://signed.test/" + aws.ToString(params.Key) + "?ttl=" + opts.Expires.String(),
	}, nil
}

func newTestS3() (*S3Storage, *fakeS3) {
	api := &fakeS3{objects: map[string]string{}}
	return &S3Storage{api: api, presigner: fakePresigner{}, region: "us-east-1"}, api
}

func TestS3UploadAndSign(t *testing.T) {
	ctx := context.Background()
	s, api := newTestS3()

	require.NoError(t, s.Upload(ctx, "documents", "/members/m1/a.pdf", strings.NewReader("x"), "application/pdf", false))
	assert.Equal(t, "application/pdf", api.objects["documents/members/m1/a.pdf"])

	err := s.Upload(ctx, "documents", "members/m1/a.pdf", strings.NewReader("x"), "application/pdf", false)
	assert.Error(t, err, "existing object without upsert")
	assert.NoError(t, s.Upload(ctx, "documents", "members/m1/a.pdf", strings.NewReader("y"), "application/pdf", true))

	url, err := s.SignedURL(ctx, "documents", "members/m1/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/members/m1/a.pdf?ttl=1h0m0s", url)

	_, err = s.SignedURL(ctx, "documents", "missing.pdf", time.Hour)
	assert.Error(t, err)
}

func TestS3RemoveAndPublicURL(t *testing.T) {
	s, api := newTestS3()

	require.NoError(t, s.Remove(context.Background(), "documents", "/a.pdf", "b.pdf"))
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, api.deleted)

	assert.Equal(t, "https://public-assets.s3.us-east-1.amazonaws.com/logos/mi%20logo.png", s.PublicURL("public-assets", "logos/mi logo.png"))

	s.endpoint = "http://localhost:9000"
	assert.Equal(t, "http://localhost:9000/public-assets/logos/x.png", s.PublicURL("public-assets", "logos/x.png"))
}
