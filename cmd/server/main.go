package main

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	_ "modernc.org/sqlite"

	"dietwithdee/internal/adapters/email"
	web "dietwithdee/internal/adapters/http"
	"dietwithdee/internal/adapters/http/middleware"
	"dietwithdee/internal/adapters/http/perf"
	"dietwithdee/internal/adapters/objectstore"
	"dietwithdee/internal/adapters/storage"
	accountStore "dietwithdee/internal/adapters/storage/account"
	articleStore "dietwithdee/internal/adapters/storage/article"
	auditStore "dietwithdee/internal/adapters/storage/audit"
	markerStore "dietwithdee/internal/adapters/storage/marker"
	profileLogStore "dietwithdee/internal/adapters/storage/profilelog"
	subscriberStore "dietwithdee/internal/adapters/storage/subscriber"
	"dietwithdee/internal/application/orchestrators"
	"dietwithdee/internal/config"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

// newLogger emits JSON in production and text elsewhere.
func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func openSQLite(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.InitDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	return db, nil
}

// buildStores picks the article and subscriber backend. Accounts and
// profile history always live in SQLite.
func buildStores(ctx context.Context, cfg config.Config, sqlDB storage.SQLDB) (*web.Stores, *mongo.Database, error) {
	s := &web.Stores{
		AccountStore:    accountStore.NewSQLiteStore(sqlDB),
		ProfileLogStore: profileLogStore.NewSQLiteStore(sqlDB),
		AuditStore:      auditStore.NewSQLiteStore(sqlDB),
	}
	if cfg.StoreBackend != "mongo" {
		s.ArticleStore = articleStore.NewSQLiteStore(sqlDB)
		s.SubscriberStore = subscriberStore.NewSQLiteStore(sqlDB)
		return s, nil, nil
	}

	mdb, err := storage.ConnectMongo(ctx, storage.MongoOptions{
		URL:      cfg.MongoURL,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, nil, err
	}
	articles := articleStore.NewMongoStore(mdb)
	if err := articles.EnsureIndexes(ctx); err != nil {
		_ = mdb.Client().Disconnect(context.Background())
		return nil, nil, fmt.Errorf("article indexes: %w", err)
	}
	s.ArticleStore = articles
	s.SubscriberStore = subscriberStore.NewMongoStore(mdb)
	return s, mdb, nil
}

func buildMarkers(ctx context.Context, cfg config.Config, sqlDB storage.SQLDB) (orchestrators.MarkerStore, func(), error) {
	switch cfg.MarkerBackend {
	case "memory":
		return markerStore.NewMemoryStore(), func() {}, nil
	case "redis":
		client, err := storage.ConnectRedis(ctx, cfg.RedisURL, 3, 2*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return markerStore.NewRedisStore(client, "dietwithdee:"), func() { client.Close() }, nil
	}
	return markerStore.NewSQLiteStore(sqlDB), func() {}, nil
}

// buildImages returns the S3 store when a bucket is configured, otherwise
// a disk store served under /uploads/.
func buildImages(cfg config.Config) (objectstore.Store, http.Handler, string, error) {
	if cfg.S3.Bucket != "" {
		s3, err := objectstore.NewS3Store(objectstore.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return nil, nil, "", err
		}
		middleware.ImageSources = append(middleware.ImageSources, s3.PublicBase())
		return s3, nil, "", nil
	}
	disk, err := objectstore.NewDiskStore(cfg.UploadDir, objectstore.DefaultDiskURLPrefix)
	if err != nil {
		return nil, nil, "", err
	}
	return disk, disk.Handler(), disk.URLPrefix(), nil
}

// buildNewsletterSender returns the bulk sender named by NEWSLETTER_PROVIDER.
func buildNewsletterSender(cfg config.Config) (email.Sender, error) {
	switch cfg.NewsletterProvider {
	case "emailjs":
		return email.NewEmailJSSender(email.EmailJSConfig{
			ServiceID:  cfg.EmailJS.ServiceID,
			TemplateID: cfg.EmailJS.TemplateID,
			UserID:     cfg.EmailJS.UserID,
			Endpoint:   cfg.EmailJS.Endpoint,
			FromName:   cfg.EmailFromName,
			FromEmail:  cfg.EmailFrom,
			ReplyTo:    cfg.ReplyTo,
		})
	case "resend":
		return email.NewResendSender(cfg.ResendKey, cfg.EmailFrom), nil
	case "postmark":
		return email.NewPostmarkSender(cfg.PostmarkServer, cfg.PostmarkAccount, cfg.EmailFrom)
	}
	if cfg.IsProduction() {
		slog.Warn("newsletter_disabled", "detail", "NEWSLETTER_PROVIDER is noop; newsletter emails are not delivered")
	}
	return email.NewNoopSender(), nil
}

// buildProxySender backs /api/send-email. Resend is used when a key is set;
// otherwise the newsletter sender doubles as the proxy transport.
func buildProxySender(cfg config.Config, fallback email.Sender, collector *perf.Collector) email.Sender {
	if cfg.ResendKey != "" {
		return email.Timed(email.NewResendSender(cfg.ResendKey, cfg.EmailFrom), collector, "resend proxy")
	}
	return fallback
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery())

	stores, mdb, err := buildStores(ctx, cfg, timedDB)
	if err != nil {
		return err
	}
	if mdb != nil {
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mdb.Client().Disconnect(dctx)
		}()
	}

	markers, closeMarkers, err := buildMarkers(ctx, cfg, timedDB)
	if err != nil {
		return err
	}
	defer closeMarkers()

	images, uploads, uploadsPrefix, err := buildImages(cfg)
	if err != nil {
		return err
	}

	bulk, err := buildNewsletterSender(cfg)
	if err != nil {
		return err
	}
	bulk = email.Timed(bulk, collector, cmp.Or(cfg.NewsletterProvider, "noop"))
	dispatcher := orchestrators.NewDispatcher(orchestrators.DispatcherDeps{
		Subscribers: stores.SubscriberStore,
		Markers:     markers,
		Sender:      bulk,
		SiteURL:     cfg.SiteURL,
		From:        cfg.EmailFrom,
		FromName:    cfg.EmailFromName,
		ReplyTo:     cfg.ReplyTo,
	})

	if cfg.AdminEmail != "" {
		created, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}, orchestrators.SeedAdminDeps{AccountStore: stores.AccountStore})
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			slog.Info("admin_seeded", "email", cfg.AdminEmail)
		}
	}

	handler, err := web.NewMux(web.Options{
		StaticDir:          "static",
		Production:         cfg.IsProduction(),
		CSRFKey:            cfg.CSRFKey,
		SiteURL:            cfg.SiteURL,
		ConsultationEmail:  cfg.ConsultationEmail,
		EmailFrom:          cfg.EmailFrom,
		ReplyTo:            cfg.ReplyTo,
		ProxyAllowedOrigin: cfg.ProxyAllowedOrigin,
		SlowRequest:        cfg.SlowRequest(),
		Uploads:            uploads,
		UploadsPrefix:      uploadsPrefix,
	}, stores, &web.Services{
		Images:     images,
		Newsletter: dispatcher,
		Mailer:     buildProxySender(cfg, bulk, collector),
	}, collector)
	if err != nil {
		return err
	}

	go func() {
		tick := time.NewTicker(time.Minute)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				live, ips := web.Sweep()
				slog.Debug("idle_state_swept", "live_sessions", live, "tracked_ips", ips)
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting",
			"version", version,
			"addr", cfg.Addr,
			"env", cfg.Env,
			"store", cfg.StoreBackend,
			"markers", cfg.MarkerBackend,
			"newsletter", cfg.NewsletterProvider,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
