package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"minimarket/internal/domain/service"
)

const publicHost = "https://storage.googleapis.com/"

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

var _ service.ObjectStorage = (*CloudStorageClient)(nil)

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Upload writes data under key and makes the object publicly readable.
func (c *CloudStorageClient) Upload(ctx context.Context, key, contentType string, data io.Reader) error {
	obj := c.client.Bucket(c.bucketName).Object(key)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to copy file to GCS: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return fmt.Errorf("failed to set ACL: %w", err)
	}

	return nil
}

func (c *CloudStorageClient) PublicURL(key string) string {
	return publicHost + c.bucketName + "/" + key
}

// KeyFromURL expects https://storage.googleapis.com/<bucket>/<key>.
func (c *CloudStorageClient) KeyFromURL(url string) (string, bool) {
	return keyFromURL(c.bucketName, url)
}

func keyFromURL(bucket, url string) (string, bool) {
	if !strings.HasPrefix(url, publicHost) {
		return "", false
	}

	parts := strings.SplitN(url[len(publicHost):], "/", 2)
	if len(parts) != 2 || parts[0] != bucket || parts[1] == "" {
		return "", false
	}

	key := parts[1]
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}

// Remove deletes every key, continuing past failures. Missing objects are not
// an error.
func (c *CloudStorageClient) Remove(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		err := c.client.Bucket(c.bucketName).Object(key).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
