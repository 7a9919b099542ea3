package objectstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config contains the information required to talk to an object store.
type Config struct {
	Provider  string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// CompletedPart pairs an uploaded part number with the completion tag the
// backend handed back for it.
type CompletedPart struct {
	PartNumber int
	ETag       string
}

// Client represents the multipart-session capabilities the coordinator
// expects from a storage backend.
type Client interface {
	// BeginSession opens a multipart upload session for key and returns
	// the backend-issued session token.
	BeginSession(ctx context.Context, key, contentType string) (string, error)

	// PresignPartURL issues a time-limited URL for uploading one part of
	// an open session.
	PresignPartURL(ctx context.Context, key, sessionToken string, partNumber int, ttl time.Duration) (string, error)

	// FinalizeSession assembles the uploaded parts into the final object.
	FinalizeSession(ctx context.Context, key, sessionToken string, parts []CompletedPart) error

	// AbortSession discards an open session and any parts uploaded so far.
	AbortSession(ctx context.Context, key, sessionToken string) error

	Close() error
}

// New creates an object store client based on the given configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "minio", "s3":
		return newMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported object store provider: %s", cfg.Provider)
	}
}

type minioClient struct {
	core   *minio.Core
	bucket string
}

func newMinioClient(cfg Config) (Client, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	return &minioClient{core: &minio.Core{Client: cl}, bucket: cfg.Bucket}, nil
}

func (m *minioClient) BeginSession(ctx context.Context, key, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	uploadID, err := m.core.NewMultipartUpload(ctx, m.bucket, key, opts)
	if err != nil {
		return "", fmt.Errorf("begin multipart session: %w", err)
	}
	return uploadID, nil
}

func (m *minioClient) PresignPartURL(ctx context.Context, key, sessionToken string, partNumber int, ttl time.Duration) (string, error) {
	params := make(url.Values)
	params.Set("partNumber", strconv.Itoa(partNumber))
	params.Set("uploadId", sessionToken)

	signed, err := m.core.PresignHeader(ctx, http.MethodPut, m.bucket, key, ttl, params, nil)
	if err != nil {
		return "", fmt.Errorf("presign part %d: %w", partNumber, err)
	}
	return signed.String(), nil
}

func (m *minioClient) FinalizeSession(ctx context.Context, key, sessionToken string, parts []CompletedPart) error {
	complete := make([]minio.CompletePart, 0, len(parts))
	for _, p := range parts {
		complete = append(complete, minio.CompletePart{
			PartNumber: p.PartNumber,
			ETag:       p.ETag,
		})
	}

	_, err := m.core.CompleteMultipartUpload(ctx, m.bucket, key, sessionToken, complete, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("complete multipart session: %w", err)
	}
	return nil
}

func (m *minioClient) AbortSession(ctx context.Context, key, sessionToken string) error {
	if err := m.core.AbortMultipartUpload(ctx, m.bucket, key, sessionToken); err != nil {
		return fmt.Errorf("abort multipart session: %w", err)
	}
	return nil
}

func (m *minioClient) Close() error {
	return nil
}
