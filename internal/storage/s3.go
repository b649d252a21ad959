// Package storage turns stored image object keys into URLs clients can
// fetch. Upload transport lives elsewhere; messages only carry the key.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/manideeprkummitha/team-collab/internal/config"
)

// S3ImageURLs presigns GET requests for objects in a private bucket.
type S3ImageURLs struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// NewS3ImageURLs builds the presigner. It makes no network call: presigning
// is a local signature over the request.
func NewS3ImageURLs(ctx context.Context, s3cfg config.S3Config) (*S3ImageURLs, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3cfg.Region),
	}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	expiry := time.Duration(s3cfg.URLExpiryMin) * time.Minute
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &S3ImageURLs{
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
		expiry:    expiry,
	}, nil
}

// ImageURL returns a presigned GET URL for objectKey.
func (s *S3ImageURLs) ImageURL(ctx context.Context, objectKey string) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return req.URL, nil
}
