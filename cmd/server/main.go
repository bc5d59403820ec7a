package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"shiptrack/internal/auth"
	"shiptrack/internal/config"
	"shiptrack/internal/infrastructure/logger"
	"shiptrack/internal/infrastructure/postgres"
	"shiptrack/internal/notifier"
	"shiptrack/internal/order"
	"shiptrack/internal/server"
	"shiptrack/internal/storage"
	"shiptrack/internal/user"
)

func main() {
	flags := pflag.NewFlagSet("shiptrack-server", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file (environment variables take precedence)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	for _, diagnostic := range cfg.Diagnostics {
		zapLogger.Warn("configuration diagnostic", zap.String("detail", diagnostic))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected",
		zap.String("driver", string(db.Dialect)),
		zap.Bool("placeholder", db.Placeholder),
	)

	hub := notifier.NewHub(cfg.Notify.CoalesceWindow, zapLogger.Named("notifier"))
	defer hub.Close()

	if db.Dialect.HasChangeFeed() && !db.Placeholder {
		connConfig, err := postgres.ParseConfig(cfg.Database)
		if err != nil {
			zapLogger.Fatal("configuring change listener", zap.Error(err))
		}
		listener := notifier.NewPGListener(connConfig, hub, notifier.ListenerOptions{
			MaxReconnectAttempts: cfg.Notify.MaxReconnectAttempts,
			ReconnectBackoff:     cfg.Notify.ReconnectBackoff,
		}, zapLogger.Named("pglistener"))
		go listener.Run(ctx)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	userCtrl := user.NewModule(db, cfg.Auth, tokens, zapLogger)
	orderCtrl := order.NewModule(db, hub, zapLogger)

	router := server.NewRouter(userCtrl, orderCtrl, tokens, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("received shutdown signal")

	// Closing the hub ends every open order stream so Shutdown does not
	// wait on them.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
