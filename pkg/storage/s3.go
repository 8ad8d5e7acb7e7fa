// Package storage provides S3-compatible object storage access.
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lopataa/schoolshop/config"
)

// Bucket is a handle to one S3-compatible bucket with presign support.
type Bucket struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
}

// New builds a Bucket from S3_* configuration.
func New(ctx context.Context) (*Bucket, error) {
	bucket := config.StorageS3Bucket()
	region := config.StorageS3Region()
	key := config.StorageS3Key()
	secret := config.StorageS3Secret()
	endpoint := config.StorageS3Endpoint() // leave empty for real AWS
	baseURL := strings.TrimRight(config.StorageS3URL(), "/")

	if bucket == "" {
		return nil, fmt.Errorf("storage/s3: S3_BUCKET is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}

	// Static credentials (required for MinIO / R2 / Spaces)
	if key != "" && secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // required for MinIO
		})
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	client := s3.NewFromConfig(cfg, clientOpts...)

	return &Bucket{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// PresignPut returns a time-limited URL that allows the holder to PUT an
// object directly into the bucket.
func (b *Bucket) PresignPut(ctx context.Context, objectName, contentType string, expiry time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectName),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := b.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("storage/s3: presign put %s: %w", objectName, err)
	}
	return out.URL, nil
}

// URL returns the public URL an uploaded object will be served from.
func (b *Bucket) URL(objectName string) string {
	return b.baseURL + "/" + b.bucket + "/" + strings.TrimLeft(objectName, "/")
}

// Exists reports whether an object is present in the bucket.
func (b *Bucket) Exists(ctx context.Context, objectName string) bool {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectName),
	})
	return err == nil
}
