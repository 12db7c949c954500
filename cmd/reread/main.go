package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reread/internal/auth"
	"reread/internal/config"
	"reread/internal/daily"
	"reread/internal/db"
	httpx "reread/internal/http"
	"reread/internal/jobs"
	"reread/internal/metrics"
	"reread/internal/monthly"
	"reread/internal/notion"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Error("db migrate", "err", err)
		os.Exit(1)
	}

	rec := &daily.Reconciler{Store: &daily.GormStore{DB: gdb}, Log: log, Metrics: m}

	r := httpx.NewRouter(cfg, httpx.Deps{
		DB:         gdb,
		JWT:        auth.NewJWTWithTTL(cfg.JWTSecret, cfg.JWTTTL),
		Reconciler: rec,
		Gatherer:   reg,
		Log:        log,
	})

	ctx, cancel := context.WithCancel(context.Background())

	// sync worker
	if cfg.SyncEnabled() {
		worker := &jobs.Worker{
			ID:    "worker-1",
			Queue: &jobs.Repo{DB: gdb},
			Syncer: &notion.Syncer{
				Client: notion.NewClient(cfg.NotionAPIURL, cfg.NotionToken, cfg.NotionVersion),
				Log:    log,
			},
			Log:        log,
			Metrics:    m,
			Poll:       cfg.SyncPollInterval,
			StaleAfter: cfg.SyncStaleAfter,
		}
		go worker.Run(ctx)
	} else {
		log.Warn("NOTION_TOKEN not set, remote sync disabled")
	}

	runner := &monthly.Runner{Prep: rec, Location: cfg.Location, LeadDays: cfg.PrepareLeadDays, Log: log}
	if err := runner.Start(ctx, cfg.PrepareCron); err != nil {
		log.Error("monthly runner", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	runner.Stop(shutdownCtx)
	_ = srv.Shutdown(shutdownCtx)
}
