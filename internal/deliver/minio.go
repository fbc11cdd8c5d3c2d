package deliver

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/you/tg-mediafetch/internal/fetch"
	"github.com/you/tg-mediafetch/internal/logx"
)

// MinioUploader stores files in an S3-compatible bucket and hands back a
// presigned download link.
type MinioUploader struct {
	client  *minio.Client
	bucket  string
	linkTTL time.Duration
}

var _ Uploader = (*MinioUploader)(nil)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	LinkTTL   time.Duration
}

func NewMinioUploader(cfg MinioConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioUploader{client: client, bucket: cfg.Bucket, linkTTL: cfg.LinkTTL}, nil
}

// EnsureBucket creates the bucket on first run.
func (u *MinioUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		logx.FromCtx(ctx).Info().Str("bucket", u.bucket).Msg("creating bucket")
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (u *MinioUploader) Upload(ctx context.Context, localPath, key string, sink fetch.Sink) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", localPath, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	reader := &countingReader{r: f, total: info.Size(), sink: sink}
	_, err = u.client.PutObject(ctx, u.bucket, key, reader, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	link, err := u.client.PresignedGetObject(ctx, u.bucket, key, u.linkTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return link.String(), nil
}

// countingReader relays read progress as percent into the sink.
type countingReader struct {
	r     io.Reader
	total int64
	read  int64
	sink  fetch.Sink
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.sink != nil && c.total > 0 {
		c.sink(float64(c.read) * 100 / float64(c.total))
	}
	return n, err
}
