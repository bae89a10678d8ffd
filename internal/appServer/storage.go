package appServer

import (
	"fmt"

	"github.com/ds124wfegd/eventwaitlist/config"
	repository "github.com/ds124wfegd/eventwaitlist/internal/database"
	"github.com/ds124wfegd/eventwaitlist/pkg/postgres"
	"github.com/ds124wfegd/eventwaitlist/pkg/redis"

	"github.com/sirupsen/logrus"
)

// newTableStore builds the backend named by storage.backend. Remote backends that cannot be
// reached at startup come up unconfigured instead of failing: reads are empty, writes fail.
// The returned cleanup releases connections and is never nil.
func newTableStore(cfg *config.Config) (repository.TableStore, func(), error) {
	noop := func() {}
	remoteCfg := repository.RemoteStoreConfig{
		CacheTTL:           cfg.Storage.CacheTTL,
		MinRequestInterval: cfg.Storage.MinRequestInterval,
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), noop, nil

	case config.BackendFile:
		return repository.NewFileStore(cfg.Storage.FilePath), noop, nil

	case config.BackendJSONBin:
		var client repository.DocumentClient
		if doc := repository.NewJSONBinDocument(cfg.JSONBin.BaseURL, cfg.JSONBin.APIKey, cfg.JSONBin.BinID, cfg.JSONBin.Timeout); doc != nil {
			client = doc
		} else {
			logrus.Warn("JSONBin API key or bin id not provided, waitlist writes disabled")
		}
		return repository.NewRemoteStore(config.BackendJSONBin, client, remoteCfg), noop, nil

	case config.BackendRedis:
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logrus.WithError(err).Warn("Redis unavailable, waitlist writes disabled")
			return repository.NewRemoteStore(config.BackendRedis, nil, remoteCfg), noop, nil
		}
		doc := repository.NewRedisDocument(redisClient, cfg.Redis.Key)
		return repository.NewRemoteStore(config.BackendRedis, doc, remoteCfg), func() { redisClient.Close() }, nil

	case config.BackendPostgres:
		db, err := postgres.NewPostgresDB(&cfg.Database)
		if err != nil {
			logrus.WithError(err).Warn("Postgres unavailable, waitlist writes disabled")
			return repository.NewRemoteStore(config.BackendPostgres, nil, remoteCfg), noop, nil
		}
		if err := postgres.RunMigrations(db); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}
		doc := repository.NewPostgresDocument(db, cfg.Database.DocumentID)
		return repository.NewRemoteStore(config.BackendPostgres, doc, remoteCfg), func() { db.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
