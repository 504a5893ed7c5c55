// Package minio adapts MinIO object storage to ports.ObjectStorage. The
// scraping pipeline uses it to archive raw provider payloads that are too
// large to keep inline on the snapshot row.
package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

type Storage struct {
	client    *minio.Client
	publicURL string
}

// NewStorage wraps a MinIO client. publicURL, when set, is used to build the
// returned object URLs (e.g. a CDN or reverse-proxy address); otherwise the
// client's endpoint is used.
func NewStorage(client *minio.Client, publicURL string) *Storage {
	return &Storage{client: client, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *Storage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: upload %s/%s: %w", bucket, objectName, err)
	}

	base := s.publicURL
	if base == "" {
		base = s.client.EndpointURL().String()
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, objectName), nil
}
