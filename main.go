package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"notesapp/config/database"
	"notesapp/internal/auth"
	"notesapp/internal/config"
	"notesapp/pkg/logger"
	"notesapp/router"
	"notesapp/server"
	"notesapp/socket"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.App.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("init token verifier: %w", err)
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	hub := socket.NewHub()

	srv, err := server.New(server.Options{
		Addr: cfg.HTTP.Addr,
		Handler: router.Setup(router.Options{
			DB:            db,
			Hub:           hub,
			Verifier:      verifier,
			AllowedOrigin: cfg.HTTP.AllowedOrigin,
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return hub.Run(ctx) })
	eg.Go(func() error { return srv.Run(ctx) })

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("wait app stop: %w", err)
	}

	logger.Sugar.Info("Notes backend stopped")
	return nil
}
