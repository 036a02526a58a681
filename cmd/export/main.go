package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"melostore/internal/config"
	"melostore/internal/models"
	"melostore/internal/network"
	"melostore/internal/repositories"
	"melostore/internal/services"
	"melostore/internal/storage"
)

// Pushes every stored song to another node, for migrations and backfills.
func main() {
	target := flag.String("target", "", "address of the receiving node, host:port")
	strict := flag.Bool("strict", false, "abort on the first failed song")
	flag.Parse()

	// Load .env file for local development
	_ = godotenv.Load()

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *target == "" {
		slog.Error("Missing required -target flag")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	ctx := context.Background()
	db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongoDatabase)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	repo, err := repositories.NewMongoMusicRepository(ctx, db.DB)
	if err != nil {
		slog.Error("Failed to initialize music repository", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewLocalStore(cfg.StoragePath, cfg.StorageCapacity)
	if err != nil {
		slog.Error("Failed to initialize blob storage", "error", err)
		os.Exit(1)
	}

	net := network.NewClient(cfg.Protocol(), cfg.Address(), cfg.Peers, cfg.PeerRequestTimeout, logger)
	exporter := services.NewExporter(repo, store, net, logger)

	slog.Info("Starting song export", "target", *target, "strict", *strict)
	stats, err := exporter.Export(ctx, *target, *strict)
	if err != nil {
		slog.Error("Export aborted", "error", err,
			"total", stats.Total, "exported", stats.Exported, "failed", stats.Failed)
		os.Exit(1)
	}

	slog.Info("Export completed",
		"total", stats.Total,
		"exported", stats.Exported,
		"failed", stats.Failed)
}
