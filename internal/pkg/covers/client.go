package covers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
)

// Cover images wider than this are downscaled before upload.
const MaxCoverWidth = 1600

// Client wraps the S3 client with cover-specific functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

var (
	defaultClient *Client
	defaultErr    error
	defaultOnce   sync.Once
)

// GetClient returns the lazily initialized default cover storage client.
func GetClient() (*Client, error) {
	defaultOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			defaultErr = err
			return
		}
		defaultClient, defaultErr = NewClient(cfg)
	})
	return defaultClient, defaultErr
}

// NewClient creates a new S3 cover storage client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 cover storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	log.Infof("[Covers] Initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// ProcessAndUpload normalizes an uploaded cover image (downscale, re-encode as
// JPEG) and stores it under the campaign's object key. Returns the public URL.
func (c *Client) ProcessAndUpload(ctx context.Context, r io.Reader, campaignUUID string) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode cover image: %w", err)
	}

	if img.Bounds().Dx() > MaxCoverWidth {
		img = imaging.Resize(img, MaxCoverWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode cover image: %w", err)
	}

	objectKey := c.config.GetObjectKey(campaignUUID)
	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover to S3: %w", err)
	}

	return c.config.PublicURL(objectKey), nil
}

// Delete removes a campaign's cover object. Missing objects are not an error.
func (c *Client) Delete(ctx context.Context, campaignUUID string) error {
	objectKey := c.config.GetObjectKey(campaignUUID)
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(objectKey),
	})
	return err
}
