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
	"golang.org/x/sync/errgroup"
)

const stopTimeout = 30 * time.Second

func main() {
	log.Println("Starting server")
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
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

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
	s := server.NewServer(cfg, components, appLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(gctx)
	})
	if cfg.Server.EnableScheduler {
		scheduler := executor.NewScheduler(&cfg.Processing, components.Executor, appLogger)
		if err = scheduler.Start(); err != nil {
			appLogger.Fatalf("could not start scheduler: %v", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			return scheduler.Stop(stopCtx)
		})
	}

	if err = g.Wait(); err != nil {
		appLogger.Errorf("server stopped with error: %v", err)
	}
	appLogger.Info("server exited")
}
