package server

import (
	"context"

	"github.com/amankumarsingh77/tg-video-relay/internal/config"
	"github.com/amankumarsingh77/tg-video-relay/pkg/db/aws"
	"github.com/amankumarsingh77/tg-video-relay/pkg/db/postgres"
	"github.com/amankumarsingh77/tg-video-relay/pkg/db/redis"
	"github.com/amankumarsingh77/tg-video-relay/pkg/db/sqlite"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/jmoiron/sqlx"
)

const sqliteDriver = "sqlite"

// OpenClients connects to the database and to the optional Redis and S3
// backends. The returned func closes whatever was opened.
func OpenClients(ctx context.Context, cfg *config.Config, logger logger.Logger) (Clients, func(), error) {
	var clients Clients
	closers := make([]func(), 0, 2)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		db  *sqlx.DB
		err error
	)
	if cfg.Postgres.PgDriver == sqliteDriver {
		db, err = sqlite.NewSqliteDB(ctx, cfg.Postgres.Name)
	} else {
		db, err = postgres.NewPsqlDB(cfg)
		if err == nil {
			err = postgres.EnsureSchema(ctx, db)
		}
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return clients, closeAll, err
	}
	logger.Infof("db connected, status: %#v", db.Stats())
	clients.DB = db
	closers = append(closers, func() { _ = db.Close() })

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(ctx, cfg)
		if err != nil {
			closeAll()
			return clients, func() {}, err
		}
		logger.Info("redis connected")
		clients.Redis = redisClient
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	if cfg.S3.Enabled {
		s3Client, presignClient, err := aws.NewAWSClient(ctx, &cfg.S3)
		if err != nil {
			closeAll()
			return clients, func() {}, err
		}
		logger.Infof("s3 client ready, bucket: %s", cfg.S3.Bucket)
		clients.S3 = s3Client
		clients.PreSignClient = presignClient
	}
	return clients, closeAll, nil
}
