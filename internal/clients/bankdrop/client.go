// Package bankdrop reads bank CSV exports from an S3-compatible drop bucket.
// Banks with no API are handled by a human (or a bank-side job) placing CSV
// exports under a known prefix; the bank adapter lists and downloads them.
package bankdrop

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/helvia-io/ledgerlink/internal/config"
	"github.com/helvia-io/ledgerlink/internal/domain"
)

// Object describes one CSV export available in the drop bucket.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// Client lists and downloads bank CSV exports
type Client struct {
	s3Client   *s3.Client
	downloader *manager.Downloader
	bucket     string
	prefix     string
	log        zerolog.Logger
}

// New creates a drop-bucket client. A non-empty endpoint switches the client
// to path-style addressing for S3-compatible stores (MinIO, R2).
func New(ctx context.Context, cfg config.BankDropConfig, log zerolog.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		s3Client:   s3Client,
		downloader: manager.NewDownloader(s3Client),
		bucket:     cfg.Bucket,
		prefix:     cfg.Prefix,
		log:        log.With().Str("client", "bankdrop").Logger(),
	}, nil
}

// ListExports returns CSV objects under the configured prefix modified within
// [from, to].
func (c *Client) ListExports(ctx context.Context, from, to time.Time) ([]Object, error) {
	var objects []Object

	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &domain.ProviderError{Provider: "bank", Message: "failed to list drop bucket", Err: err}
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			if obj.LastModified.Before(from) || obj.LastModified.After(to) {
				continue
			}
			objects = append(objects, Object{
				Key:          *obj.Key,
				LastModified: *obj.LastModified,
				Size:         aws.ToInt64(obj.Size),
			})
		}
	}

	c.log.Debug().Int("count", len(objects)).Msg("Listed bank CSV exports")
	return objects, nil
}

// Download fetches one export into memory. Exports are small (hundreds of
// rows), so buffering is fine.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)

	_, err := c.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &domain.ProviderError{Provider: "bank", Message: fmt.Sprintf("failed to download %s", key), Err: err}
	}

	return buf.Bytes(), nil
}
