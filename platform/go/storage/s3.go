package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures an S3 compatible backend (AWS, R2, MinIO).
type S3Config struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// S3Store writes media to an S3 compatible bucket.
type S3Store struct {
	client        *s3.Client
	publicBaseURL string
	region        string
	endpoint      string
}

// NewS3Store loads the default AWS config, overriding credentials and
// endpoint when set.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, publicBaseURL: cfg.PublicBaseURL, region: region, endpoint: cfg.Endpoint}, nil
}

func (s *S3Store) Put(ctx context.Context, loc ObjectLocation, contentType string, body io.Reader) (string, error) {
	if err := validate(loc); err != nil {
		return "", err
	}

	seeker, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("buffer upload %s: %w", loc.Key, err)
		}
		seeker = bytes.NewReader(data)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		Body:   seeker,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put s3 object %s: %w", loc.Key, err)
	}

	return s.PublicURL(loc), nil
}

func (s *S3Store) Delete(ctx context.Context, loc ObjectLocation) error {
	if err := validate(loc); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return fmt.Errorf("delete s3 object %s: %w", loc.Key, err)
	}
	return nil
}

func (s *S3Store) Check(ctx context.Context, bucket string) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return fmt.Errorf("head s3 bucket %s: %w", bucket, err)
	}
	return nil
}

// PublicURL is where browsers fetch the object from.
func (s *S3Store) PublicURL(loc ObjectLocation) string {
	switch {
	case s.publicBaseURL != "":
		return joinURL(s.publicBaseURL, loc.Key)
	case s.endpoint != "":
		return joinURL(s.endpoint, loc.Bucket, loc.Key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", loc.Bucket, s.region, loc.Key)
	}
}

var _ Blobs = (*S3Store)(nil)
