// Package main wires together the content crawler service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/stitchpress/content-crawler/internal/api"
	"github.com/stitchpress/content-crawler/internal/cms"
	"github.com/stitchpress/content-crawler/internal/clock/system"
	"github.com/stitchpress/content-crawler/internal/config"
	"github.com/stitchpress/content-crawler/internal/crawls"
	"github.com/stitchpress/content-crawler/internal/extractor"
	"github.com/stitchpress/content-crawler/internal/id/uuid"
	"github.com/stitchpress/content-crawler/internal/importer"
	"github.com/stitchpress/content-crawler/internal/logging"
	"github.com/stitchpress/content-crawler/internal/media"
	"github.com/stitchpress/content-crawler/internal/metrics"
	"github.com/stitchpress/content-crawler/internal/renderer"
	"github.com/stitchpress/content-crawler/internal/storage/memory"
	"github.com/stitchpress/content-crawler/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	idGen := uuid.New()

	var (
		jobStore     cms.JobStore
		contentStore cms.ContentStore
		mediaStore   cms.MediaStore
	)
	if cfg.DB.DSN != "" {
		pool, poolErr := postgres.NewPool(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxOpenConns),
		})
		if poolErr != nil {
			logger.Fatal("postgres init failed", zap.Error(poolErr))
		}
		defer pool.Close()
		if schemaErr := postgres.EnsureSchema(ctx, pool); schemaErr != nil {
			logger.Fatal("postgres schema failed", zap.Error(schemaErr))
		}
		jobStore, _ = postgres.NewJobStore(pool)
		contentStore, _ = postgres.NewContentStore(pool)
		mediaStore, _ = postgres.NewMediaStore(pool)
		logger.Info("using postgres stores")
	} else {
		jobStore = memory.NewJobStore()
		contentStore = memory.NewContentStore()
		mediaStore = memory.NewMediaStore()
		logger.Info("using in-memory stores")
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	pipeline := media.New(blobs, media.Config{
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     cfg.CrawlTimeout(),
		MaxEdgePx:   cfg.Images.MaxEdgePx,
		JPEGQuality: cfg.Images.JPEGQuality,
		MaxParallel: cfg.Images.MaxParallel,
	}, logger.Named("media"))

	rend, err := renderer.NewChromedp(renderer.Config{
		MaxParallel:       cfg.Headless.MaxParallel,
		UserAgent:         cfg.Crawler.UserAgent,
		NavigationTimeout: cfg.NavTimeout(),
	})
	if err != nil {
		logger.Fatal("headless renderer init failed", zap.Error(err))
	}
	defer rend.Close()

	ex := extractor.New(rend, pipeline, logger.Named("extractor"))
	disc := extractor.NewDiscoverer(extractor.DiscovererConfig{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.CrawlTimeout(),
	})

	crawlSvc := crawls.New(jobStore, contentStore, ex, disc, idGen, clock, crawls.Config{
		WaitSelector:    cfg.Crawler.WaitSelector,
		Timeout:         cfg.CrawlTimeout(),
		MaxPagesDefault: cfg.Crawler.MaxPagesDefault,
	}, logger.Named("crawls"))

	imp := importer.New(contentStore, mediaStore, pipeline, clock, logger.Named("importer"))

	apiServer := api.NewServer(crawlSvc, imp, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	crawlSvc.Wait()
	logger.Info("shutdown complete")
}

func newBlobStore(ctx context.Context, cfg config.Config) (cms.BlobStore, error) {
	switch cfg.Images.Provider {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return media.NewGCSStore(client, media.GCSConfig{Bucket: cfg.Images.GCSBucket})
	default:
		return media.NewLocalStore(media.LocalConfig{
			BaseDir:    cfg.Images.Dir,
			PublicBase: cfg.Images.PublicBase,
		})
	}
}
