package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"melostore/internal/cache"
	"melostore/internal/config"
	"melostore/internal/handlers"
	"melostore/internal/links"
	"melostore/internal/models"
	"melostore/internal/network"
	"melostore/internal/repositories"
	"melostore/internal/search"
	"melostore/internal/services"
	"melostore/internal/storage"
	"melostore/internal/tags"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)

	// Initialize database
	db, err := models.NewDatabase(context.Background(), cfg.MongodbURL, cfg.MongoDatabase)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	repo, err := repositories.NewMongoMusicRepository(context.Background(), db.DB)
	if err != nil {
		slog.Error("Failed to initialize music repository", "error", err)
		os.Exit(1)
	}

	// Initialize cache
	var linkCacheBackend cache.Cache
	if cfg.ValkeyURL != "" {
		linkCacheBackend, err = cache.NewValkeyCache(cfg.ValkeyURL)
		if err != nil {
			slog.Error("Failed to initialize cache", "error", err)
			os.Exit(1)
		}
	} else {
		linkCacheBackend = cache.NewMemoryCache()
	}
	defer linkCacheBackend.Close()

	// Initialize blob storage
	store, err := storage.NewLocalStore(cfg.StoragePath, cfg.StorageCapacity)
	if err != nil {
		slog.Error("Failed to initialize blob storage", "error", err)
		os.Exit(1)
	}
	guard := storage.NewAddGuard()

	// Initialize peer networking
	net := network.NewClient(cfg.Protocol(), cfg.Address(), cfg.Peers, cfg.PeerRequestTimeout, logger)

	// Initialize services
	relevance := services.NewRelevanceChecker(store, cfg.RelevanceWindow, logger)
	resolver := services.NewResolver(repo, store, relevance, cfg.Similarity)
	addition := services.NewAdditionService(repo, store, guard, resolver, net,
		services.NewMemorySuspicion(), cfg.Address(), cfg.RequestTimeout, cfg.PeerRequestTimeout, logger)
	provider := services.NewDocumentProvider(repo, store, cfg.Protocol(), cfg.Address(), logger)
	pipeline := search.NewPipeline(provider, net, search.Options{
		Similarity:             cfg.Similarity,
		TitlePriority:          cfg.TitlePriority,
		FindingLimit:           cfg.FindingLimit,
		FindingStringMinLength: cfg.FindingStringMinLength,
	}, logger)
	linkResolver := services.NewLinkResolver(pipeline,
		links.NewLinkCache(linkCacheBackend, cfg.LinkCacheTTL), logger)
	gate := services.NewApprovalGate(cfg.ApprovalSecret, cfg.RequestTimeout)

	// Bring stored titles up to the current normalization rules before
	// serving any traffic.
	if err := services.NormalizeTitles(context.Background(), repo, logger); err != nil {
		slog.Error("Failed to normalize stored titles", "error", err)
		os.Exit(1)
	}

	// Initialize routes
	client := handlers.NewClientHandler(addition, pipeline, linkResolver, gate, net, handlers.ClientOptions{
		Controlled:   cfg.Controlled(),
		PrepareTitle: cfg.PrepareTitle,
		PrepareCover: cfg.PrepareCover,
		Cover: tags.CoverOptions{
			Quality:     cfg.CoverQuality,
			MinSize:     cfg.CoverMinSize,
			MaxSize:     cfg.CoverMaxSize,
			MaxFileSize: cfg.CoverMaxFileSize,
		},
	})
	node := handlers.NewNodeHandler(provider, addition, client)
	content := handlers.NewContentHandler(repo, store, cfg.Similarity)
	router := handlers.NewRouter(client, node, content)

	// Background sweep of dangling documents and orphaned blobs
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sweeper := services.NewSweeper(repo, store, guard, cfg.CleanupInterval, logger)
	go sweeper.Run(sweepCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "address", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
}
