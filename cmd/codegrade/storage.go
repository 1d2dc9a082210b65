package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/codegrade/internal/config"
	"github.com/kailas-cloud/codegrade/internal/db"
	"github.com/kailas-cloud/codegrade/internal/db/memory"
	dbRedis "github.com/kailas-cloud/codegrade/internal/db/redis"
	"github.com/kailas-cloud/codegrade/internal/db/sqldb"
	questionrepo "github.com/kailas-cloud/codegrade/internal/repository/question"
	questionuc "github.com/kailas-cloud/codegrade/internal/usecase/question"
)

// storage is the set of backends selected by storage.driver.
type storage struct {
	questions questionuc.Repository
	kv        db.KVStore
	pinger    db.Pinger
	close     func()
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (storage, error) {
	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return storage{}, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return storage{}, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		logger.Info("Connected to key-value store", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return storage{
			questions: questionrepo.New(store, cfg.KeyPrefix),
			kv:        store,
			pinger:    store,
			close:     store.Close,
		}, nil

	case config.DriverSQLite, config.DriverPostgres:
		sqlDB, err := sqldb.Open(ctx, sqldb.Driver(cfg.Driver), cfg.DSN)
		if err != nil {
			return storage{}, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		if err := sqlDB.WaitForReady(ctx, timeout); err != nil {
			_ = sqlDB.Close()
			return storage{}, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		logger.Info("Connected to SQL database", zap.String("driver", cfg.Driver))
		// SQL drivers keep the result cache in process.
		return storage{
			questions: questionrepo.NewSQL(sqlDB.DB),
			kv:        memory.NewStore(),
			pinger:    sqlDB,
			close:     func() { _ = sqlDB.Close() },
		}, nil

	default:
		store := memory.NewStore()
		logger.Warn("Using in-memory storage, questions are lost on restart")
		return storage{
			questions: questionrepo.New(store, cfg.KeyPrefix),
			kv:        store,
			pinger:    store,
			close:     store.Close,
		}, nil
	}
}
