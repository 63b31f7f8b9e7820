package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wuwuwuxn/sheetserver/internal/application"
	appai "github.com/wuwuwuxn/sheetserver/internal/application/ai"
	"github.com/wuwuwuxn/sheetserver/internal/application/uploads"
	"github.com/wuwuwuxn/sheetserver/internal/config"
	aiclient "github.com/wuwuwuxn/sheetserver/internal/infra/ai/openai"
	mysqlp "github.com/wuwuwuxn/sheetserver/internal/infra/db/mysql"
	postgresp "github.com/wuwuwuxn/sheetserver/internal/infra/db/postgres"
	"github.com/wuwuwuxn/sheetserver/internal/infra/executor/analyzer"
	"github.com/wuwuwuxn/sheetserver/internal/infra/httpserver"
	"github.com/wuwuwuxn/sheetserver/internal/infra/storage"
	"github.com/wuwuwuxn/sheetserver/internal/logger"
	"github.com/wuwuwuxn/sheetserver/internal/middleware"

	domain "github.com/wuwuwuxn/sheetserver/internal/domain/reports"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}

	// one optional positional argument selects the port, e.g. ./api 8001;
	// an unparseable value falls back to the configured port
	if len(os.Args) > 1 {
		if p, err := strconv.Atoi(os.Args[1]); err == nil && p > 0 {
			cfg.Server.Port = p
		}
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	ctx := context.Background()

	// storage root: uploads, mailbox file, history/
	store, err := storage.NewFSStore(cfg.Storage.Root)
	if err != nil {
		slog.Error("storage init error", "error", err)
		os.Exit(1)
	}

	// init runner
	runner := analyzer.NewRunner(
		cfg.Analyzer.Command,
		cfg.Analyzer.Args,
		store.Root(),
		cfg.AnalyzerTimeout(),
	)

	checkers := map[string]middleware.HealthChecker{
		"storage": &middleware.StorageHealthChecker{Root: store.Root()},
	}

	// optional audit database
	var audit domain.AuditRepository
	var db *sql.DB
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			slog.Error("mysql connect error", "error", err)
			os.Exit(1)
		}
		audit = mysqlp.NewReportRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			slog.Error("postgres connect error", "error", err)
			os.Exit(1)
		}
		audit = postgresp.NewReportRepository(db)
	case "":
		// audit trail disabled
	default:
		slog.Error("unknown database driver", "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// optional minio mirror for history snapshots
	var artifacts domain.ArtifactStore
	if cfg.Minio.Enabled {
		mstore, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			slog.Error("minio init error", "error", err)
			os.Exit(1)
		}
		artifacts = mstore
	}

	// optional AI interpretation
	var aiSvc *appai.Service
	if cfg.AI.APIKey != "" {
		aiSvc = appai.NewService(aiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model))
	} else {
		aiSvc = appai.NewService(nil)
	}

	// init service
	svc := &uploads.Service{
		Store:     store,
		Runner:    runner,
		Audit:     audit,
		Artifacts: artifacts,
		Clock:     application.SystemClock{},
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, aiSvc, httpserver.Options{
		StorageRoot:       store.Root(),
		RateLimitCapacity: cfg.RateLimit.Capacity,
		RateLimitRefill:   cfg.RateLimit.RefillRate,
		HealthCheckers:    checkers,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
		// The analyzer blocks the handler for up to its full timeout, so
		// the write deadline has to outlast it.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.AnalyzerTimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		slog.Info("server listening", "addr", addr, "root", store.Root())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
