// Package file implements the JSON-file durable backend. Each record
// is stored as one document under a two-character shard directory,
// written atomically via a temp file and rename.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	alterrors "github.com/altseek/altseek/pkg/errors"
	"github.com/altseek/altseek/pkg/types"
)

// Backend stores records as JSON files under a data directory.
type Backend struct {
	directory string
	logger    *zap.Logger
}

// New creates a file backend rooted at directory.
func New(directory string, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, alterrors.Wrap(alterrors.CodeInvalidConfig, "creating cache directory", err).
			WithComponent("file")
	}
	return &Backend{
		directory: directory,
		logger:    logger.Named("file"),
	}, nil
}

// Name identifies the backend in logs and stats.
func (b *Backend) Name() string {
	return "file"
}

// Save writes the record atomically and reports success.
func (b *Backend) Save(ctx context.Context, key string, rec *types.Record) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	data, err := json.Marshal(rec)
	if err != nil {
		b.logger.Warn("marshal failed", zap.String("key", key), zap.Error(err))
		return false
	}

	path := b.recordPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		b.logger.Warn("shard dir creation failed", zap.String("key", key), zap.Error(err))
		return false
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		b.logger.Warn("write failed",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeStorageWrite, "writing record file", err)))
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		b.logger.Warn("rename failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Load reads a record, returning nil when absent or unreadable. A
// corrupted file is reported as a miss and left in place for manual
// inspection.
func (b *Backend) Load(ctx context.Context, key string) *types.Record {
	if err := ctx.Err(); err != nil {
		return nil
	}

	data, err := os.ReadFile(b.recordPath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Warn("read failed",
				zap.String("key", key),
				zap.Error(alterrors.Wrap(alterrors.CodeStorageRead, "reading record file", err)))
		}
		return nil
	}

	var rec types.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		b.logger.Warn("corrupt record left for inspection",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeRecordCorrupt, "parsing record file", err)))
		return nil
	}
	return &rec
}

// recordPath shards records by the first two characters of the key
// hash to keep directories small.
func (b *Backend) recordPath(key string) string {
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
	return filepath.Join(b.directory, hash[:2], hash[:16]+".json")
}
