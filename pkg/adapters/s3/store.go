// Package s3 stores run snapshots as JSON objects in an S3 bucket under
// states/<request_id>.json.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// API is the subset of the S3 client used by the store.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Store implements ports.SnapshotStore on an S3 bucket.
type Store struct {
	api    API
	bucket string
	prefix string
}

type Option func(*Store)

// WithPrefix overrides the object key prefix (default "states/").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store over an existing client.
func New(api API, bucket string, opts ...Option) *Store {
	s := &Store{
		api:    api,
		bucket: bucket,
		prefix: domain.SnapshotKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromEnv builds a client from the default AWS credential chain.
func NewFromEnv(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, opts...), nil
}

func (s *Store) key(requestID string) string {
	return s.prefix + requestID + ".json"
}

// Save uploads the snapshot as a JSON object.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(snap.RequestID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put snapshot %s: %w", snap.RequestID, err)
	}
	return nil
}

// Load downloads and decodes a snapshot.
func (s *Store) Load(ctx context.Context, requestID string) (domain.Snapshot, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(requestID)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return domain.Snapshot{}, domain.ErrRunNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("failed to get snapshot %s: %w", requestID, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read snapshot %s: %w", requestID, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes the object. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, requestID string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(requestID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", requestID, err)
	}
	return nil
}

// List pages through the prefix and returns request IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string

	for {
		out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}

		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			if id, ok := strings.CutSuffix(name, ".json"); ok && id != "" && !strings.Contains(id, "/") {
				ids = append(ids, id)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return ids, nil
}
