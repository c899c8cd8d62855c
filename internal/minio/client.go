// Package minio implements the storage capability with minio-go, for
// S3-compatible backends that do not speak the AWS SDK's endpoint rules.
package minio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tasnim.dev/deployment-cleaner/internal/storage"
)

// Config holds the connection parameters for a MinIO server.
type Config struct {
	// Endpoint is either host:port or a full URL. An https scheme enables TLS.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

type Client struct {
	client *minio.Client
}

var _ storage.Storage = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	host, secure, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	mc, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return &Client{client: mc}, nil
}

func parseEndpoint(endpoint string) (host string, secure bool, err error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, errors.New("minio endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), false, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("minio endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
	case "https":
		secure = true
	default:
		return "", false, fmt.Errorf("minio endpoint: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("minio endpoint %q has no host", endpoint)
	}
	return u.Host, secure, nil
}

// ListAllObjects lists every object under prefix. minio-go pages through the
// listing internally.
func (c *Client) ListAllObjects(ctx context.Context, bucket, prefix string) ([]storage.Object, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []storage.Object
	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("ListObjects: %w", obj.Err)
		}
		objects = append(objects, storage.Object{
			Key:          obj.Key,
			LastModified: obj.LastModified,
			Size:         obj.Size,
		})
	}
	return objects, nil
}

// DeleteObjects removes keys in bulk. Per-key failures are reported as a
// *storage.PartialDeleteError. A failure not tied to a key, such as a
// rejected request, fails the whole call.
func (c *Client) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	var (
		callErr error
		failed  []storage.KeyError
	)
	// The result channel is drained fully so minio-go's sender never blocks.
	for rerr := range c.client.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.ObjectName == "" {
			if callErr == nil && rerr.Err != nil {
				callErr = fmt.Errorf("RemoveObjects: %w", rerr.Err)
			}
			continue
		}

		ke := storage.KeyError{Key: rerr.ObjectName}
		if rerr.Err != nil {
			ke.Message = rerr.Err.Error()
			var resp minio.ErrorResponse
			if errors.As(rerr.Err, &resp) {
				ke.Code = resp.Code
				ke.Message = resp.Message
			}
		}
		failed = append(failed, ke)
	}

	if callErr != nil {
		return callErr
	}
	if len(failed) > 0 {
		return &storage.PartialDeleteError{Requested: len(keys), Failed: failed}
	}
	return nil
}
