package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader is the subset of manager.Uploader used by S3Sink.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Sink uploads blobs to s3://bucket/prefix/name.
type S3Sink struct {
	uploader Uploader
	bucket   string
	prefix   string
}

// NewS3Sink wraps an S3 client in a multipart-capable uploader.
func NewS3Sink(client *s3.Client, bucket, prefix string) *S3Sink {
	return NewS3SinkWithUploader(manager.NewUploader(client), bucket, prefix)
}

// NewS3SinkWithUploader uses a caller-provided uploader.
func NewS3SinkWithUploader(u Uploader, bucket, prefix string) *S3Sink {
	return &S3Sink{uploader: u, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key a blob name is stored under.
func (s *S3Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Sink) Put(ctx context.Context, name string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(name)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, s.Key(name), err)
	}
	return nil
}
