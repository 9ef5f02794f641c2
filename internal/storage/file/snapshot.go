package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	alterrors "github.com/altseek/altseek/pkg/errors"
	"github.com/altseek/altseek/pkg/types"
)

// Snapshot persists a whole store image as one JSON document, written
// atomically. The quality-scored cache uses it to survive restarts.
type Snapshot struct {
	path   string
	logger *zap.Logger
}

// NewSnapshot creates a snapshot store at path, creating parent
// directories as needed.
func NewSnapshot(path string, logger *zap.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, alterrors.Wrap(alterrors.CodeInvalidConfig, "creating snapshot directory", err).
			WithComponent("file")
	}
	return &Snapshot{
		path:   path,
		logger: logger.Named("snapshot"),
	}, nil
}

// SaveSnapshot writes the full record map and reports success.
func (s *Snapshot) SaveSnapshot(ctx context.Context, records map[string]*types.Record) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("snapshot marshal failed", zap.Error(err))
		return false
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		s.logger.Warn("snapshot write failed",
			zap.Error(alterrors.Wrap(alterrors.CodeStorageWrite, "writing snapshot", err)))
		return false
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		s.logger.Warn("snapshot rename failed", zap.Error(err))
		return false
	}
	return true
}

// LoadSnapshot reads the record map back. A missing or corrupt file
// yields nil; a corrupt file is left in place for manual inspection.
func (s *Snapshot) LoadSnapshot(ctx context.Context) map[string]*types.Record {
	if err := ctx.Err(); err != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("snapshot read failed",
				zap.Error(alterrors.Wrap(alterrors.CodeStorageRead, "reading snapshot", err)))
		}
		return nil
	}

	var records map[string]*types.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("corrupt snapshot left for inspection",
			zap.Error(alterrors.Wrap(alterrors.CodeRecordCorrupt, "parsing snapshot", err)))
		return nil
	}
	return records
}
