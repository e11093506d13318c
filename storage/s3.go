package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

// S3Uploader writes event snapshots to S3-compatible storage.
type S3Uploader struct {
	client *s3.Client
	cfg    config.S3Config
}

// NewS3Uploader sends requests through httpClient when it is non-nil.
func NewS3Uploader(ctx context.Context, cfg config.S3Config, httpClient *http.Client) (*S3Uploader, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}
	if httpClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(httpClient))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "s3: load aws config")
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	cfg.Region = region
	return &S3Uploader{client: client, cfg: cfg}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return eris.Wrapf(err, "s3: put object %s", key)
	}
	return nil
}

// SnapshotKey names the archive object for a snapshot taken at t.
func SnapshotKey(t time.Time) string {
	return fmt.Sprintf("snapshots/events-%d.json", t.Unix())
}

// ArchiveSnapshot uploads the full event list and returns the object key.
func (u *S3Uploader) ArchiveSnapshot(ctx context.Context, events []models.Event, at time.Time) (string, error) {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "s3: encode snapshot")
	}

	key := SnapshotKey(at)
	if err := u.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func (u *S3Uploader) PublicURL(key string) string {
	if u.cfg.Endpoint != "" {
		if strings.Contains(u.cfg.Endpoint, "digitaloceanspaces.com") {
			// DO Spaces: https://{bucket}.{region}.digitaloceanspaces.com/{key}
			host := strings.TrimPrefix(u.cfg.Endpoint, "https://")
			return fmt.Sprintf("https://%s.%s/%s", u.cfg.Bucket, host, key)
		}
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(u.cfg.Endpoint, "/"), u.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key)
}
