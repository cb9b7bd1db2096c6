// ABOUTME: Remote backup target backed by an S3-compatible bucket through minio-go
// ABOUTME: Moves snapshot files between devices; it never merges or syncs records

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Prefix is the key prefix under which backups are stored.
const Prefix = "backups/"

// ErrNotConfigured is returned when the remote target lacks an endpoint or bucket.
var ErrNotConfigured = errors.New("remote backup target not configured")

// Config holds S3 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Object describes one stored backup.
type Object struct {
	Name     string
	Size     int64
	Modified time.Time
}

// Client reads and writes backup files in one bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	logger *slog.Logger
}

// New creates a client. It does not contact the server; call Init for that.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, ErrNotConfigured
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Client{
		mc:     mc,
		bucket: cfg.Bucket,
		logger: slog.Default().With("component", "remote"),
	}, nil
}

// Init creates the bucket if it does not exist.
func (c *Client) Init(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	c.logger.Info("bucket created", "bucket", c.bucket)
	return nil
}

// Push uploads a backup under name and returns the object key.
func (c *Client) Push(ctx context.Context, name string, data []byte) (string, error) {
	key, err := ObjectKey(name)
	if err != nil {
		return "", err
	}

	_, err = c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: ContentType(data),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", c.bucket, key, err)
	}

	c.logger.Info("backup pushed", "bucket", c.bucket, "key", key, "size", len(data))
	return key, nil
}

// Pull downloads the backup stored under name.
func (c *Client) Pull(ctx context.Context, name string) ([]byte, error) {
	key, err := ObjectKey(name)
	if err != nil {
		return nil, err
	}

	obj, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", c.bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", c.bucket, key, err)
	}

	c.logger.Debug("backup pulled", "bucket", c.bucket, "key", key, "size", len(data))
	return data, nil
}

// List returns the stored backups, newest first.
func (c *Client) List(ctx context.Context) ([]Object, error) {
	var out []Object
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: Prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", c.bucket, obj.Err)
		}
		out = append(out, Object{
			Name:     strings.TrimPrefix(obj.Key, Prefix),
			Size:     obj.Size,
			Modified: obj.LastModified,
		})
	}
	SortNewestFirst(out)
	return out, nil
}

// Delete removes the backup stored under name.
func (c *Client) Delete(ctx context.Context, name string) error {
	key, err := ObjectKey(name)
	if err != nil {
		return err
	}
	if err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// ObjectKey maps a backup file name to its bucket key. Only the base name is
// kept, so local directories never leak into the bucket layout.
func ObjectKey(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "" || base == "." || base == "/" || base == ".." {
		return "", fmt.Errorf("invalid backup name %q", name)
	}
	return Prefix + base, nil
}

// ContentType picks the upload content type: sealed backups are opaque bytes,
// everything else is a JSON snapshot.
func ContentType(data []byte) string {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return "application/json"
	}
	return "application/octet-stream"
}

// SortNewestFirst orders objects by modification time, newest first, with
// the name as a tiebreaker.
func SortNewestFirst(objs []Object) {
	sort.Slice(objs, func(i, j int) bool {
		if !objs[i].Modified.Equal(objs[j].Modified) {
			return objs[i].Modified.After(objs[j].Modified)
		}
		return objs[i].Name < objs[j].Name
	})
}
