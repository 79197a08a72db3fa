package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// maxObjectBytes is the largest S3 object loaded into memory.
const maxObjectBytes = 10 << 20

// objectGetter is the subset of *s3.Client used by s3Source.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Source implements Source on an S3 bucket.
type s3Source struct {
	client objectGetter
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Source creates a source reading keys under prefix in bucket.
func NewS3Source(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Source, error) {
	logger = logger.With().Str("component", "s3-assets").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 asset source initialised")

	return newS3Source(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3Source(client objectGetter, bucket, prefix string, logger zerolog.Logger) *s3Source {
	return &s3Source{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (s *s3Source) Open(ctx context.Context, name string) (*Asset, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	key := s.prefix + cleaned

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrAssetNotFound, s.bucket, key)
		}
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return nil, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}
	defer result.Body.Close()

	if size := aws.ToInt64(result.ContentLength); size > maxObjectBytes {
		return nil, fmt.Errorf("%w: s3://%s/%s is %d bytes, limit %d", ErrAssetTooLarge, s.bucket, key, size, maxObjectBytes)
	}

	body, err := io.ReadAll(io.LimitReader(result.Body, maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object %s: %w", key, err)
	}
	if len(body) > maxObjectBytes {
		return nil, fmt.Errorf("%w: s3://%s/%s exceeds %d bytes", ErrAssetTooLarge, s.bucket, key, maxObjectBytes)
	}

	modTime := time.Time{}
	if result.LastModified != nil {
		modTime = *result.LastModified
	}

	s.logger.Debug().
		Str("key", key).
		Int("bytes", len(body)).
		Msg("asset loaded from S3")

	return &Asset{Name: cleaned, Body: body, ModTime: modTime}, nil
}
