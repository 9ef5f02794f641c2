package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/altseek/altseek/internal/config"
	"github.com/altseek/altseek/internal/storage/badger"
	"github.com/altseek/altseek/internal/storage/file"
	"github.com/altseek/altseek/internal/storage/redis"
	"github.com/altseek/altseek/internal/storage/s3"
	alterrors "github.com/altseek/altseek/pkg/errors"
	"github.com/altseek/altseek/pkg/types"
)

// Build assembles the backend manager from configuration. Backend
// names left empty stay unconfigured; the manager degrades cleanly.
func Build(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Manager, error) {
	primary, err := buildBackend(ctx, cfg.Primary, cfg, logger)
	if err != nil {
		return nil, err
	}
	fallback, err := buildBackend(ctx, cfg.Fallback, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewManager(logger, primary, fallback), nil
}

func buildBackend(ctx context.Context, name string, cfg config.StorageConfig, logger *zap.Logger) (types.DurableBackend, error) {
	switch name {
	case "":
		return nil, nil
	case "file":
		return file.New(cfg.File.Directory, logger)
	case "s3":
		return s3.New(ctx, cfg.S3, logger)
	case "redis":
		return redis.New(ctx, cfg.Redis, logger)
	case "badger":
		return badger.New(cfg.Badger, logger)
	default:
		return nil, alterrors.Newf(alterrors.CodeInvalidConfig, "unknown backend %q", name)
	}
}
