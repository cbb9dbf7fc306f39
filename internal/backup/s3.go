package backup

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/picklesmaker/pickles/internal/config"
)

// objectPutter is the part of the S3 client the uploader needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// S3Uploader stores backups in an S3-compatible bucket.
type S3Uploader struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Uploader builds an uploader from cfg. Static credentials are used when
// given, otherwise the default AWS credential chain applies. A custom endpoint
// switches to path-style addressing for MinIO and similar stores.
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("backup: s3 bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, errLoad := loadDefaultAWSConfig(ctx, opts...)
	if errLoad != nil {
		return nil, fmt.Errorf("backup: load aws config: %w", errLoad)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// Key returns the object key used for a backup file name.
func (u *S3Uploader) Key(name string) string {
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, name string, body io.Reader, size int64) (string, error) {
	key := u.Key(name)
	contentType := "application/json"
	if strings.HasSuffix(name, gzipExt) {
		contentType = "application/gzip"
	}
	_, errPut := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if errPut != nil {
		return "", errPut
	}
	return "s3://" + u.bucket + "/" + key, nil
}
