package server

import (
	"fmt"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/config"
	"github.com/amankumarsingh77/tg-video-relay/internal/executor"
	"github.com/amankumarsingh77/tg-video-relay/internal/memory"
	"github.com/amankumarsingh77/tg-video-relay/internal/models"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor/objectstore"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor/telegram"
	"github.com/amankumarsingh77/tg-video-relay/internal/processor/ytdlp"
	"github.com/amankumarsingh77/tg-video-relay/internal/results"
	resultRepository "github.com/amankumarsingh77/tg-video-relay/internal/results/repository"
	resultUsecase "github.com/amankumarsingh77/tg-video-relay/internal/results/usecase"
	"github.com/amankumarsingh77/tg-video-relay/internal/tasks"
	taskRepository "github.com/amankumarsingh77/tg-video-relay/internal/tasks/repository"
	taskUsecase "github.com/amankumarsingh77/tg-video-relay/internal/tasks/usecase"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// Components is the object graph shared by the HTTP API and the scheduler.
type Components struct {
	Registry  *processor.Registry
	Governor  *memory.Governor
	TaskUC    tasks.UseCase
	ResultUC  results.UseCase
	Ingestion tasks.Ingestion
	Executor  *executor.Executor
}

// Clients are the connections Components are built on. Redis and S3 are
// optional.
type Clients struct {
	DB            *sqlx.DB
	Redis         *redis.Client
	S3            *s3.Client
	PreSignClient *s3.PresignClient
}

func NewComponents(cfg *config.Config, clients Clients, logger logger.Logger) (*Components, error) {
	registry, err := NewRegistry(cfg, clients, logger)
	if err != nil {
		return nil, err
	}
	governor := memory.NewGovernor(memory.ConfigFrom(&cfg.Processing), memory.NewSystemReader(), logger)

	var redisRepo tasks.RedisRepository
	if clients.Redis != nil {
		redisRepo = taskRepository.NewTaskRedisRepo(clients.Redis, cfg.Redis.KeyPrefix)
	}
	tRepo := taskRepository.NewTaskRepo(clients.DB)
	rRepo := resultRepository.NewResultRepo(clients.DB)

	resultUC := resultUsecase.NewResultUseCase(rRepo, registry, logger)
	taskUC := taskUsecase.NewTaskUseCase(tRepo, redisRepo, resultUC, registry, governor, logger)

	return &Components{
		Registry:  registry,
		Governor:  governor,
		TaskUC:    taskUC,
		ResultUC:  resultUC,
		Ingestion: taskUsecase.NewIngestion(taskUC, logger),
		Executor:  executor.NewExecutor(cfg, taskUC, resultUC, redisRepo, governor, logger),
	}, nil
}

// NewRegistry registers a yt-dlp source for every source kind, the Telegram
// destination when enabled, and the object store when an S3 client exists.
// It fails when no yt-dlp executable can be found.
func NewRegistry(cfg *config.Config, clients Clients, logger logger.Logger) (*processor.Registry, error) {
	binary, err := ytdlp.ResolveBinary(cfg.Downloader.YtDlpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve yt-dlp: %w", err)
	}
	logger.Infof("Using yt-dlp at %s", binary)

	registry := processor.NewRegistry()
	for _, kind := range models.SourceTypes {
		registry.RegisterSource(ytdlp.NewProcessor(kind, binary, cfg.Downloader.TempDir, logger))
	}
	if cfg.Telegram.Enabled {
		registry.RegisterDestination(telegram.NewProcessor(&cfg.Telegram, logger))
	}
	if clients.S3 != nil {
		store := objectstore.NewS3Store(clients.S3, clients.PreSignClient, cfg.S3.Bucket)
		expiry := time.Duration(cfg.S3.PresignExpireH) * time.Hour
		registry.RegisterDestination(objectstore.NewProcessor(store, cfg.S3.KeyPrefix, expiry, logger))
	}
	return registry, nil
}
