package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petermazzocco/memory-wall/internal/auth"
	"github.com/petermazzocco/memory-wall/internal/blob"
	"github.com/petermazzocco/memory-wall/internal/config"
	"github.com/petermazzocco/memory-wall/internal/handlers"
	"github.com/petermazzocco/memory-wall/internal/imaging"
	"github.com/petermazzocco/memory-wall/internal/imaging/vips"
	"github.com/petermazzocco/memory-wall/internal/logging"
	"github.com/petermazzocco/memory-wall/internal/memories"
	"github.com/petermazzocco/memory-wall/internal/store"
	"github.com/petermazzocco/memory-wall/internal/store/memstore"
	"github.com/petermazzocco/memory-wall/internal/store/mongostore"
	"github.com/petermazzocco/memory-wall/internal/store/sqlstore"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	// Database connection
	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("opening store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Warn("closing store", "err", err)
		}
	}()

	// Image storage
	blobs, uploadsDir, err := openBlobs(ctx, cfg)
	if err != nil {
		logger.Error("opening blob storage", "backend", cfg.BlobBackend, "err", err)
		os.Exit(1)
	}

	var processor imaging.Processor = imaging.Noop{}
	if cfg.StripImageMetadata {
		processor = vips.Normalizer{}
	}

	// EnsureAdmin logs its own failures.
	_ = auth.EnsureAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword, logger)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authSvc, err := auth.NewService(db, issuer)
	if err != nil {
		logger.Error("creating auth service", "err", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(handlers.Deps{
		Memories:           memories.NewService(db, blobs, processor),
		Auth:               authSvc,
		RequireAuth:        issuer.Middleware,
		Logger:             logger,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		UploadsDir:         uploadsDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server",
			"addr", srv.Addr,
			"store", cfg.StoreBackend,
			"blobs", cfg.BlobBackend,
			"strip_metadata", cfg.StripImageMetadata,
		)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
			return
		}
		logger.Info("shutdown complete")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
	}
}

// openStore never fails because the database is unreachable: schema setup
// errors are logged and requests fail at the data-access point instead.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.EnsureIndexes(idxCtx); err != nil {
			logger.Error("creating mongo indexes", "err", err)
		}
		return s, nil

	case config.StorePostgres, config.StoreSQLite:
		open := sqlstore.OpenPostgres
		if cfg.StoreBackend == config.StoreSQLite {
			open = sqlstore.OpenSQLite
		}
		s, err := open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		migrateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := s.Migrate(migrateCtx); err != nil {
			logger.Error("auto migrating models", "err", err)
		}
		return s, nil

	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// openBlobs also returns the directory to serve under /uploads, empty for
// remote backends.
func openBlobs(ctx context.Context, cfg *config.Config) (blob.Store, string, error) {
	switch cfg.BlobBackend {
	case config.BlobDisk:
		d, err := blob.NewDisk(cfg.UploadsDir, "/uploads")
		if err != nil {
			return nil, "", err
		}
		return d, d.Dir(), nil

	case config.BlobS3:
		s, err := blob.NewS3(ctx, blob.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AccessKeyID,
			AccessKeySecret: cfg.AccessKeySecret,
			Bucket:          cfg.BucketName,
			PublicURL:       cfg.PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil

	case config.BlobMinio:
		m, err := blob.NewMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.BucketName, cfg.PublicURL)
		if err != nil {
			return nil, "", err
		}
		return m, "", nil
	}
	return nil, "", fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
}
