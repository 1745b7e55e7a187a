package kbhub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Catalog reads a JSON array of articles from one object in S3-compatible
// storage, where the Knowledge Hub publishes its export.
type S3Catalog struct {
	client *minio.Client
	bucket string
	key    string
}

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	Endpoint  string // host:port (e.g., "localhost:9000")
	AccessKey string
	SecretKey string
	Bucket    string
	Key       string // object key, e.g. "exports/articles.json"
	Region    string
	UseSSL    bool
}

func NewS3Catalog(cfg S3Config) (*S3Catalog, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("kbhub: s3 client: %w", err)
	}

	return &S3Catalog{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Key,
	}, nil
}

func (c *S3Catalog) Articles(ctx context.Context) ([]Article, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, c.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("kbhub: get s3://%s/%s: %w", c.bucket, c.key, err)
	}
	defer obj.Close()

	var articles []Article
	if err := json.NewDecoder(obj).Decode(&articles); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("kbhub: catalog object s3://%s/%s does not exist", c.bucket, c.key)
		}
		return nil, fmt.Errorf("kbhub: decoding s3://%s/%s: %w", c.bucket, c.key, err)
	}
	return validate(articles)
}

var _ Catalog = (*S3Catalog)(nil)
