package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Service stores objects in Amazon S3 (or compatible APIs).
type S3Service struct {
	uploader uploader
}

func NewS3Service(client *s3.Client) *S3Service {
	return &S3Service{
		uploader: manager.NewUploader(client),
	}
}

func (s *S3Service) Put(ctx context.Context, in PutInput) (string, error) {
	if in.Bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}
	key := strings.Trim(in.Key, "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	if in.Body == nil {
		return "", fmt.Errorf("object body is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(in.Bucket),
		Key:    aws.String(key),
		Body:   in.Body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", in.Bucket, key), nil
}

var _ Service = (*S3Service)(nil)
