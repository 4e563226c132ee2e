package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"reelkeep/api"
	"reelkeep/config"
	"reelkeep/handlers"
	"reelkeep/services/activity"
	"reelkeep/services/collection"
	"reelkeep/services/enrich"
	"reelkeep/services/metadata"
	"reelkeep/services/recs"
	"reelkeep/services/store"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("reelkeep starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("REELKEEP_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			slog.SetDefault(slog.New(slog.NewTextHandler(multiWriter, nil)))
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Select the collection backend once at startup: local file store unless
	// a redis address is configured.
	var collectionStore store.Store
	if settings.Store.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		redisStore, err := store.NewRedisStore(ctx, settings.Store.Redis.Addr, settings.Store.Redis.Password, settings.Store.Redis.DB, settings.Store.Redis.KeyPrefix)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis store: %v", err)
		}
		defer redisStore.Close()
		collectionStore = redisStore
		log.Printf("using redis collection store at %s", settings.Store.Redis.Addr)
	} else {
		fileStore, err := store.NewFileStore(settings.Store.Directory)
		if err != nil {
			log.Fatalf("failed to initialise file store: %v", err)
		}
		collectionStore = fileStore
		log.Printf("using file collection store in %s", settings.Store.Directory)
	}

	metadataClient := metadata.NewClient(settings.Metadata.BaseURL, settings.Metadata.APIKey, settings.Metadata.RequestsPerSec)
	enricher := enrich.NewEnricher(metadataClient, time.Duration(settings.Sync.EnrichTimeoutSec)*time.Second)
	activityClient := activity.NewClient(settings.Activity.BaseURL, settings.Activity.APIKey)
	recsClient := recs.NewClient(settings.Recommendations.BaseURL, settings.Recommendations.APIKey)

	collectionService := collection.NewService(
		collectionStore,
		enricher,
		activityClient,
		settings.Query.PageSize,
		settings.Sync.EnrichWorkers,
	)

	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewCollectionHandler(collectionService),
		handlers.NewRecommendHandler(recsClient),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}
