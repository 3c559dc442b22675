package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/pkg/apperrors"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type ObjectInfo struct {
	Key           string
	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  *time.Time
}

// Store is the slice of S3 the destination needs.
type Store interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
	HeadObject(ctx context.Context, key string) (*ObjectInfo, error)
	RemoveObject(ctx context.Context, key string) error
	HeadBucket(ctx context.Context) error
}

type s3Store struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
	bucket        string
}

func NewS3Store(client *s3.Client, preSignClient *s3.PresignClient, bucket string) Store {
	return &s3Store{
		client:        client,
		preSignClient: preSignClient,
		bucket:        bucket,
	}
}

func (s *s3Store) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &s.bucket,
			Key:           &key,
			ContentType:   &contentType,
			ContentLength: &size,
			Body:          body,
		},
	)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "failed to upload object")
	}
	return nil
}

func (s *s3Store) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := s.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &s.bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(expires),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign get object: %w", err)
	}
	return req.URL, nil
}

func (s *s3Store) HeadObject(ctx context.Context, key string) (*ObjectInfo, error) {
	res, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "object not found: %s", key)
		}
		return nil, apperrors.Wrap(apperrors.KindUpstream, err, "failed to head object")
	}
	info := &ObjectInfo{
		Key:          key,
		LastModified: res.LastModified,
	}
	if res.ContentLength != nil {
		info.ContentLength = *res.ContentLength
	}
	if res.ContentType != nil {
		info.ContentType = *res.ContentType
	}
	if res.ETag != nil {
		info.ETag = *res.ETag
	}
	return info, nil
}

func (s *s3Store) RemoveObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "failed to remove object")
	}
	return nil
}

func (s *s3Store) HeadBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket}); err != nil {
		return apperrors.Wrap(apperrors.KindUpstream, err, "bucket unavailable")
	}
	return nil
}
