// Package minio stores analytics exports in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/yumzoom/yumzoom/internal/config"
	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
	"github.com/yumzoom/yumzoom/pkg/errors"
)

// ObjectAPI is the subset of *minio.Client used here.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// Defaults.
const (
	DefaultBucket        = "yumzoom-exports"
	DefaultRegion        = "us-east-1"
	DefaultPresignExpiry = 15 * time.Minute
	ExportRetentionDays  = 7

	maxPresignExpiry = 7 * 24 * time.Hour
)

var ErrClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")

// Client wraps a bucket on an S3-compatible server.
type Client struct {
	api    ObjectAPI
	bucket string
	region string
	expiry time.Duration
	logger logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewClient connects to cfg.Endpoint and makes sure the export bucket exists.
func NewClient(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio endpoint required")
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	c := NewClientWithAPI(api, cfg.Bucket, cfg.Region, cfg.PresignExpiry, log)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	c.logger.Info("minio client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", c.bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api ObjectAPI, bucket, region string, expiry time.Duration, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	if region == "" {
		region = DefaultRegion
	}
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	return &Client{api: api, bucket: bucket, region: region, expiry: expiry, logger: log.Named("minio")}
}

// Bucket returns the export bucket name.
func (c *Client) Bucket() string { return c.bucket }

// EnsureBucket creates the bucket if needed and installs the expiry rule.
// A lifecycle failure is logged but not returned since some S3-compatible
// servers do not support it.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to reach object storage")
	}
	if !exists {
		if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create bucket").WithDetail(c.bucket)
		}
		c.logger.Info("created bucket", logging.String("bucket", c.bucket))
	}

	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{{
		ID:         "exports-cleanup",
		Status:     "Enabled",
		Expiration: lifecycle.Expiration{Days: ExportRetentionDays},
	}}
	if err := c.api.SetBucketLifecycle(ctx, c.bucket, lc); err != nil {
		c.logger.Warn("failed to set bucket lifecycle", logging.String("bucket", c.bucket), logging.Err(err))
	}
	return nil
}

// Put uploads data under key.
func (c *Client) Put(ctx context.Context, key, contentType string, data []byte) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	if key == "" {
		return errors.InvalidParam("object key required")
	}
	_, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "failed to upload export").WithDetail(key)
	}
	c.logger.Debug("object uploaded", logging.String("key", key), logging.Int("size", len(data)))
	return nil
}

// PresignedURL returns a download link for key.  expiry falls back to the
// configured default and is capped at seven days.
func (c *Client) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if c.isClosed() {
		return "", ErrClientClosed
	}
	if expiry <= 0 {
		expiry = c.expiry
	}
	if expiry > maxPresignExpiry {
		expiry = maxPresignExpiry
	}
	u, err := c.api.PresignedGetObject(ctx, c.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExportFailed, "failed to sign export url").WithDetail(key)
	}
	return u.String(), nil
}

// Delete removes key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	if err := c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to delete object").WithDetail(key)
	}
	return nil
}

// Name implements the health checker contract.
func (c *Client) Name() string { return "minio" }

// Check verifies the bucket is reachable.
func (c *Client) Check(ctx context.Context) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	ok, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "object storage unreachable")
	}
	if !ok {
		return errors.New(errors.ErrCodeServiceUnavailable, "export bucket missing").WithDetail(c.bucket)
	}
	return nil
}

// Close marks the client closed.  minio-go holds no persistent connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

//Personal.AI order the ending
