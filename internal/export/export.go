// Package export writes JSON snapshots of the catalog to S3-compatible
// object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/erazemk/compendium/internal/model"
)

// ObjectWriter is the subset of *minio.Client used by the exporter.
type ObjectWriter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader,
		objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Config describes the object storage target.
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Exporter uploads catalog snapshots.
type Exporter struct {
	client ObjectWriter
	bucket string
	prefix string
	now    func() time.Time
}

// Result describes an uploaded snapshot.
type Result struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Count  int    `json:"count"`
	Size   int64  `json:"size"`
}

// New connects to the object store and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating object store client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("creating bucket %q: %w", cfg.Bucket, err)
		}
	}

	return NewWithClient(cli, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient creates an exporter around an existing client.
func NewWithClient(client ObjectWriter, bucket, prefix string) *Exporter {
	return &Exporter{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Export uploads analyses as <prefix>/catalog-<UTC timestamp>.json.
func (e *Exporter) Export(ctx context.Context, analyses []model.Analysis) (*Result, error) {
	if analyses == nil {
		analyses = []model.Analysis{}
	}
	data, err := json.MarshalIndent(analyses, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}

	key := path.Join(e.prefix, "catalog-"+e.now().UTC().Format("20060102T150405Z")+".json")
	info, err := e.client.PutObject(ctx, e.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}

	return &Result{Bucket: e.bucket, Key: key, Count: len(analyses), Size: info.Size}, nil
}
