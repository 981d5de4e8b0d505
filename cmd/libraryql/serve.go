// cmd/libraryql/serve.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"libraryql/internal/author"
	"libraryql/internal/book"
	"libraryql/internal/config"
	"libraryql/internal/docstore"
	"libraryql/internal/graph"
	"libraryql/internal/rental"
	"libraryql/internal/repository"
	"libraryql/internal/server"
	"libraryql/internal/telemetry"
	"libraryql/internal/user"
)

const shutdownGrace = 15 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := telemetry.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flush traces", zap.Error(err))
		}
	}()

	client, err := docstore.Connect(ctx, docstore.ClientOptions{
		URI:                    cfg.Database.URI,
		Database:               cfg.Database.Name,
		MaxPoolSize:            cfg.Database.MaxPoolSize,
		ServerSelectionTimeout: cfg.Database.ServerSelectionTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("disconnect mongodb", zap.Error(err))
		}
	}()
	logger.Info("connected to mongodb", zap.String("database", client.DatabaseName()))

	opts := repository.Options{
		StrictEmptyResults:    cfg.StrictEmptyResults,
		ParallelReverseWrites: cfg.ParallelReverseWrites,
		Logger:                logger.Named("repository"),
	}
	authors := author.NewService(docstore.Traced(docstore.NewMongoCollection[author.Author](client, docstore.Authors), docstore.Authors), opts)
	books := book.NewService(docstore.Traced(docstore.NewMongoCollection[book.Book](client, docstore.Books), docstore.Books), authors, opts)
	users := user.NewService(docstore.Traced(docstore.NewMongoCollection[user.User](client, docstore.Users), docstore.Users), opts)
	rentals := rental.NewService(docstore.Traced(docstore.NewMongoCollection[rental.Rental](client, docstore.Rentals), docstore.Rentals), users, books, opts)

	schema, err := graph.NewSchema(graph.NewResolver(graph.Services{
		Authors: authors,
		Books:   books,
		Users:   users,
		Rentals: rentals,
	}, cfg.Debug))
	if err != nil {
		return err
	}

	h, err := server.NewRouter(cfg, server.Deps{
		Schema:   schema,
		Store:    client,
		Logger:   logger.Named("http"),
		Metrics:  telemetry.NewMetrics(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
	})
	if err != nil {
		return err
	}
	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Port), h, shutdownGrace, logger)
}
