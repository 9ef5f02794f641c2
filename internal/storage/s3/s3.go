// Package s3 implements the object-storage durable backend on top of
// aws-sdk-go-v2. Records are stored as JSON objects sharded by the
// first two characters of the key.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
	alterrors "github.com/altseek/altseek/pkg/errors"
	"github.com/altseek/altseek/pkg/types"
)

// Backend stores cache records in an S3 bucket.
type Backend struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	logger    *zap.Logger
}

// New creates an S3 backend from configuration. Custom endpoints and
// path-style addressing support S3-compatible stores in tests and
// on-prem deployments.
func New(ctx context.Context, cfg config.S3BackendConfig, logger *zap.Logger) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, alterrors.New(alterrors.CodeInvalidConfig, "s3 bucket name cannot be empty").
			WithComponent("s3")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, alterrors.Wrap(alterrors.CodeInvalidConfig, "loading aws config", err).
			WithComponent("s3")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "cache/"
	} else if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Backend{
		client:    client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
		logger:    logger.Named("s3"),
	}, nil
}

// NewFromClient creates a backend around an existing client, used by
// tests with stubbed transports.
func NewFromClient(client *s3.Client, bucket, keyPrefix string, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = "cache/"
	}
	return &Backend{
		client:    client,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger.Named("s3"),
	}
}

// Name identifies the backend in logs and stats.
func (b *Backend) Name() string {
	return "s3"
}

// Save uploads the record and reports success.
func (b *Backend) Save(ctx context.Context, key string, rec *types.Record) bool {
	data, err := json.Marshal(rec)
	if err != nil {
		b.logger.Warn("marshal failed", zap.String("key", key), zap.Error(err))
		return false
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		b.logger.Warn("put failed",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeStorageWrite, "putting object", err)))
		return false
	}
	return true
}

// Load downloads a record, returning nil when absent or unreadable.
func (b *Backend) Load(ctx context.Context, key string) *types.Record {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if !errors.As(err, &noKey) {
			b.logger.Warn("get failed",
				zap.String("key", key),
				zap.Error(alterrors.Wrap(alterrors.CodeStorageRead, "getting object", err)))
		}
		return nil
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		b.logger.Warn("read failed", zap.String("key", key), zap.Error(err))
		return nil
	}

	var rec types.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		b.logger.Warn("corrupt object left for inspection",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeRecordCorrupt, "parsing object", err)))
		return nil
	}
	return &rec
}

// objectKey shards records under the prefix so listings stay usable
// at the archive tier's million-item scale.
func (b *Backend) objectKey(key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return b.keyPrefix + shard + "/" + key + ".json"
}
