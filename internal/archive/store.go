// Package archive persists raw webhook payloads to S3 so incidents can
// be replayed and disputed deliveries audited.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store archives webhook payloads to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *slog.Logger
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ArchivePayload writes the raw payload under a date-partitioned key and
// returns the key. Payloads are stored as received, before parsing, so
// the archive stays useful even when the parser rejects the body.
func (s *Store) ArchivePayload(ctx context.Context, tenantID string, receivedAt time.Time, payload []byte) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	s3Key := fmt.Sprintf("webhooks/whatsapp/v1/by-date/%d/%02d/%02d/%s/%s.json",
		receivedAt.Year(), receivedAt.Month(), receivedAt.Day(), tenantID, uuid.NewString())

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", s3Key, err)
	}

	s.logger.Info("archived webhook payload to S3",
		"tenant_id", tenantID,
		"s3_key", s3Key,
		"bytes", len(payload),
	)
	return s3Key, nil
}
