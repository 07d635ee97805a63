// Package minioutil mirrors saved inventory files to and from an
// S3-compatible bucket.
package minioutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kjk/inventory/atomicfile"
	"github.com/kjk/inventory/u"
)

type Config struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// use http instead of https, for local servers
	Insecure     bool
	RequestTrace io.Writer
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return errors.New("must provide Access, Secret, Bucket and Endpoint in config")
	}
	return nil
}

type Client struct {
	Client *minio.Client
	Bucket string
}

// New creates a client and checks that the bucket exists
func New(ctx context.Context, config *Config) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	mc, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Access, config.Secret, ""),
		Region: config.Region,
		Secure: !config.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if config.RequestTrace != nil {
		mc.TraceOn(config.RequestTrace)
	}
	found, err := mc.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", config.Bucket)
	}
	return &Client{
		Client: mc,
		Bucket: config.Bucket,
	}, nil
}

// ContentTypeFor returns content type for an inventory file. Compressed
// files keep text/csv type and the encoding is in Content-Encoding
func ContentTypeFor(path string) (contentType string, contentEncoding string) {
	contentType = "text/csv; charset=utf-8"
	switch u.CompressionForPath(path) {
	case u.CompressionGzip:
		contentEncoding = "gzip"
	case u.CompressionZstd:
		contentEncoding = "zstd"
	case u.CompressionBrotli:
		contentEncoding = "br"
	}
	if contentEncoding == "" && !strings.EqualFold(filepath.Ext(path), ".csv") {
		contentType = "application/octet-stream"
	}
	return contentType, contentEncoding
}

// RemotePath returns the object name for a local file under prefix
func RemotePath(prefix string, localPath string) string {
	name := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (c *Client) Exists(ctx context.Context, remotePath string) bool {
	_, err := c.Client.StatObject(ctx, c.Bucket, remotePath, minio.StatObjectOptions{})
	return err == nil
}

// UploadFile uploads a saved inventory file
func (c *Client) UploadFile(ctx context.Context, remotePath string, path string) (minio.UploadInfo, error) {
	contentType, contentEncoding := ContentTypeFor(path)
	opts := minio.PutObjectOptions{
		ContentType:     contentType,
		ContentEncoding: contentEncoding,
	}
	return c.Client.FPutObject(ctx, c.Bucket, remotePath, path, opts)
}

// DownloadFile downloads remotePath to dstPath. dstPath is replaced
// atomically so a failed download doesn't destroy a previous copy.
func (c *Client) DownloadFile(ctx context.Context, dstPath string, remotePath string) error {
	obj, err := c.Client.GetObject(ctx, c.Bucket, remotePath, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	if err = os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return err
	}
	f, err := atomicfile.New(dstPath)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err = io.Copy(f, obj); err != nil {
		return err
	}
	return f.Close()
}
