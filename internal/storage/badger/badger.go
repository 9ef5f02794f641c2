// Package badger implements the embedded-database durable backend on
// badger v4, for single-node deployments that want persistence without
// an external service.
package badger

import (
	"context"
	"encoding/json"
	"errors"

	badgerdb "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
	alterrors "github.com/altseek/altseek/pkg/errors"
	"github.com/altseek/altseek/pkg/types"
)

const keyPrefix = "altseek:cache:"

// Backend stores cache records in a badger key-value database.
type Backend struct {
	db     *badgerdb.DB
	logger *zap.Logger
}

// New opens (or creates) the database at the configured directory.
// InMemory mode backs tests and ephemeral deployments.
func New(cfg config.BadgerBackendConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badgerdb.DefaultOptions(cfg.Directory).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, alterrors.Wrap(alterrors.CodeInvalidConfig, "opening badger database", err).
			WithComponent("badger")
	}

	return &Backend{
		db:     db,
		logger: logger.Named("badger"),
	}, nil
}

// Name identifies the backend in logs and stats.
func (b *Backend) Name() string {
	return "badger"
}

// Save persists the record inside an update transaction.
func (b *Backend) Save(ctx context.Context, key string, rec *types.Record) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	data, err := json.Marshal(rec)
	if err != nil {
		b.logger.Warn("marshal failed", zap.String("key", key), zap.Error(err))
		return false
	}

	err = b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	})
	if err != nil {
		b.logger.Warn("set failed",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeStorageWrite, "badger set", err)))
		return false
	}
	return true
}

// Load retrieves a record, returning nil when absent or unreadable.
func (b *Backend) Load(ctx context.Context, key string) *types.Record {
	if err := ctx.Err(); err != nil {
		return nil
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			b.logger.Warn("get failed",
				zap.String("key", key),
				zap.Error(alterrors.Wrap(alterrors.CodeStorageRead, "badger get", err)))
		}
		return nil
	}

	var rec types.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		b.logger.Warn("corrupt record left for inspection",
			zap.String("key", key),
			zap.Error(alterrors.Wrap(alterrors.CodeRecordCorrupt, "parsing record", err)))
		return nil
	}
	return &rec
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}
