package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/praxxy/backoffice/attachments"
	"github.com/praxxy/backoffice/config"
	"github.com/praxxy/backoffice/dashboard"
	"github.com/praxxy/backoffice/routes"
	"github.com/praxxy/backoffice/session"
	"github.com/praxxy/backoffice/storage"
	"github.com/praxxy/backoffice/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db, err := config.InitDatabase(cfg)
	if err != nil {
		utils.Sugar.Fatalf("database: %v", err)
	}
	if cfg.SeedOnBoot {
		if err := config.Seed(db, utils.Logger); err != nil {
			utils.Sugar.Fatalf("seed: %v", err)
		}
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		utils.Sugar.Fatalf("blob storage: %v", err)
	}
	sessions, closeSessions := newSessionStore(cfg)

	reconciler := attachments.NewReconciler(blobs, attachments.NewDBQueue(db), utils.Logger)
	cleaner := attachments.NewCleaner(db, blobs, utils.Logger)
	if err := cleaner.Start(time.Duration(cfg.CleanupIntervalMinutes) * time.Minute); err != nil {
		utils.Sugar.Fatalf("blob cleaner: %v", err)
	}

	r := routes.SetupRouter(cfg, routes.Deps{
		DB:         db,
		Blobs:      blobs,
		Sessions:   sessions,
		Reconciler: reconciler,
		Aggregator: dashboard.NewAggregator(db, utils.Logger),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	err = utils.GraceServer(":"+cfg.AppPort, r,
		func(context.Context) {
			if err := cleaner.Stop(); err != nil {
				utils.Logger.Warn("stop blob cleaner", zap.Error(err))
			}
		},
		func(context.Context) { closeSessions() },
		func(context.Context) {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	)
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

func newBlobStore(cfg config.AppConfig) (storage.BlobStore, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Store(cfg.S3Region, cfg.S3Bucket)
	}
	return storage.NewLocalStore(cfg.StorageRoot)
}

// newSessionStore prefers Redis and falls back to process memory when it is unreachable.
func newSessionStore(cfg config.AppConfig) (session.Store, func()) {
	if cfg.SessionDriver != "redis" {
		return session.NewMemoryStore(), func() {}
	}
	rdb, err := utils.NewRedisClient(context.Background(), cfg)
	if err != nil {
		utils.Logger.Warn("redis unavailable, sessions kept in memory", zap.Error(err))
		return session.NewMemoryStore(), func() {}
	}
	return session.NewRedisStore(rdb), func() { _ = rdb.Close() }
}
