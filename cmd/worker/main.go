package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/config"
	"github.com/amankumarsingh77/tg-video-relay/internal/executor"
	"github.com/amankumarsingh77/tg-video-relay/internal/server"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
)

const stopTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "config.yml", "path to the config file")
	flag.Parse()

	cfgFile, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("Starting worker, AppVersion: %s, MaxConcurrentTasks: %d", cfg.Server.AppVersion, cfg.Processing.MaxConcurrentTasks)
	if !cfg.Redis.Enabled {
		appLogger.Warn("redis is disabled, running several workers against one database may process a task twice")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, closeClients, err := server.OpenClients(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("could not open clients: %v", err)
	}
	defer closeClients()

	components, err := server.NewComponents(cfg, clients, appLogger)
	if err != nil {
		appLogger.Fatalf("could not build components: %v", err)
	}
	scheduler := executor.NewScheduler(&cfg.Processing, components.Executor, appLogger)
	if err = scheduler.Start(); err != nil {
		appLogger.Fatalf("could not start scheduler: %v", err)
	}

	<-ctx.Done()
	log.Println("Shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err = scheduler.Stop(stopCtx); err != nil {
		appLogger.Errorf("worker stopped with error: %v", err)
	}
	appLogger.Info("worker exited")
}
