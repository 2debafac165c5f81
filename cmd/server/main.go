package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "billionsgym/internal/adapters/email"
	web "billionsgym/internal/adapters/http"
	"billionsgym/internal/adapters/http/perf"
	"billionsgym/internal/adapters/storage"
	accountStore "billionsgym/internal/adapters/storage/account"
	bookingStore "billionsgym/internal/adapters/storage/booking"
	notificationStore "billionsgym/internal/adapters/storage/notification"
	outboxStore "billionsgym/internal/adapters/storage/outbox"
	scheduleStore "billionsgym/internal/adapters/storage/trainerschedule"
	"billionsgym/internal/application/orchestrators"
	"billionsgym/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load(os.Getenv("BILLIONS_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	setupLogging(cfg)

	// WAL mode, foreign keys and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)

	acctStore := accountStore.NewSQLiteStore(timedDB)
	boxStore := outboxStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		AccountStore:      acctStore,
		ScheduleStore:     scheduleStore.NewSQLiteStore(timedDB),
		BookingStore:      bookingStore.NewSQLiteStore(timedDB),
		NotificationStore: notificationStore.NewSQLiteStore(timedDB),
		OutboxStore:       boxStore,
	}

	seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("startup_event", "event", "email_sender", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("startup_event", "event", "email_disabled", "reason", "BILLIONS_RESEND_KEY not set")
		} else {
			slog.Info("startup_event", "event", "email_sender", "provider", "noop")
		}
	}

	csrfKey, err := web.LoadCSRFKey(cfg.CSRFKey, cfg.IsProduction())
	if err != nil {
		log.Fatalf("invalid CSRF key: %v", err)
	}

	handler := web.NewMux(stores, collector, web.Options{
		CSRFKey:            csrfKey,
		Production:         cfg.IsProduction(),
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		SlowRequest:        cfg.SlowRequest,
		PublicURL:          cfg.PublicURL,
		EmailFrom:          cfg.EmailFrom,
	})
	defer web.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopOutbox := orchestrators.StartOutboxRetryScheduler(ctx, orchestrators.OutboxRetryDeps{
		OutboxStore: boxStore,
		EmailSender: sender,
		Now:         time.Now,
	}, orchestrators.OutboxRetryConfig{Interval: cfg.OutboxInterval, Enabled: true})
	defer stopOutbox()

	go func() {
		slog.Info("startup_event", "event", "listening",
			"version", version, "addr", cfg.Addr, "env", cfg.Env, "schema", storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown_event", "event", "draining")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_event", "event", "shutdown_failed", "error", err)
	}
}

// setupLogging installs a JSON handler in production and a text handler elsewhere.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
