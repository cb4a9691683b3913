// Package media persists payment screenshots. Two backends: local disk for
// development and S3 for production.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// Store saves screenshot bytes under a name and returns a stable reference
// for the booking row.
type Store interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// LocalStore writes screenshots to a directory on disk.
type LocalStore struct {
	dir    string
	logger *logging.Logger
}

// NewLocalStore creates the upload directory if it does not exist.
func NewLocalStore(dir string, logger *logging.Logger) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("media: upload directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create upload dir: %w", err)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

// Save writes the bytes and returns the file path as the reference.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("media: write %s: %w", path, err)
	}
	s.logger.Debug("screenshot saved", "path", path, "bytes", len(data))
	return path, nil
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads screenshots to an S3 bucket under screenshots/.
type S3Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
}

// NewS3Store builds an S3-backed screenshot store.
func NewS3Store(s3Client S3API, bucket string, logger *logging.Logger) *S3Store {
	if s3Client == nil {
		panic("media: s3 client required")
	}
	if bucket == "" {
		panic("media: bucket required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Save uploads the bytes and returns the s3:// URI as the reference.
func (s *S3Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := "screenshots/" + filepath.Base(name)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("media: s3 put %s: %w", key, err)
	}
	s.logger.Info("screenshot uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
