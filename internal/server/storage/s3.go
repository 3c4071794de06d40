package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	sc "github.com/scanvault/scanvault/internal/server/config"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in)
	}
	copyObject = func(c *s3.Client, ctx context.Context, in *s3.CopyObjectInput) (*s3.CopyObjectOutput, error) {
		return c.CopyObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
)

// S3Store implements ObjectStore over an S3-compatible backend, mapping each
// Area to its own bucket.
type S3Store struct {
	config *sc.Config
}

// NewS3Store constructs an S3-backed ObjectStore from server configuration.
func NewS3Store(config *sc.Config) *S3Store {
	return &S3Store{config: config}
}

func (s *S3Store) bucket(area Area) string {
	if area == AreaPermanent {
		return s.config.PermanentBucket
	}
	return s.config.QuarantineBucket
}

func (s *S3Store) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// PresignPut mints a presigned PUT for a single key in area.
func (s *S3Store) PresignPut(ctx context.Context, area Area, key string, ttl time.Duration) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.bucket(area)
	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	return req.URL, nil
}

// PresignGet mints a presigned GET for a single key in area.
func (s *S3Store) PresignGet(ctx context.Context, area Area, key string, ttl time.Duration) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.bucket(area)
	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}

	return req.URL, nil
}

// Exists uses HeadObject so no object data is transferred.
func (s *S3Store) Exists(ctx context.Context, area Area, key string) (bool, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return false, err
	}

	bucket := s.bucket(area)
	_, err = headObject(client, ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}

	return true, nil
}

// Move copies the object to the destination area, then deletes the source.
func (s *S3Store) Move(ctx context.Context, key string, from, to Area) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	srcBucket := s.bucket(from)
	dstBucket := s.bucket(to)
	source := fmt.Sprintf("%s/%s", srcBucket, key)

	_, err = copyObject(client, ctx, &s3.CopyObjectInput{
		Bucket:     &dstBucket,
		Key:        &key,
		CopySource: &source,
	})
	if err != nil {
		return fmt.Errorf("copy object: %w", err)
	}

	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &srcBucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete source object: %w", err)
	}

	return nil
}

// Delete removes the object. Deleting a missing key is not an error in S3.
func (s *S3Store) Delete(ctx context.Context, area Area, key string) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	bucket := s.bucket(area)
	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}
