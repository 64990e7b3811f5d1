// SPDX-License-Identifier: EPL-2.0

package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the configuration for S3 publishing.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string // Optional: key prefix, e.g. "converted/"
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// S3Publisher uploads files to a bucket.
type S3Publisher struct {
	client   *s3.Client
	bucket   string
	region   string
	prefix   string
	endpoint string
}

// NewS3Publisher creates a new S3Publisher. Credentials come from cfg when
// both keys are set, otherwise from the default AWS chain.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, ErrS3NotConfigured
	}

	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Publisher{
		client:   s3.NewFromConfig(awsCfg, clientOpts...),
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		prefix:   cfg.Prefix,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
	}, nil
}

// Key returns the object key a file is uploaded under.
func (p *S3Publisher) Key(file string) string {
	return path.Join(p.prefix, filepath.Base(file))
}

// Publish uploads the file at path and returns its URL.
func (p *S3Publisher) Publish(ctx context.Context, file string) (string, error) {
	f, err := os.Open(file) // #nosec G304 - path is one of our outputs
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	key := p.Key(file)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("upload to S3: %w", err)
	}

	return p.url(key), nil
}

func (p *S3Publisher) url(key string) string {
	if p.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key)
}
