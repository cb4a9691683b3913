package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartsalon/salon-booking-bot/internal/api/router"
	"github.com/smartsalon/salon-booking-bot/internal/availability"
	"github.com/smartsalon/salon-booking-bot/internal/bookings"
	"github.com/smartsalon/salon-booking-bot/internal/catalog"
	appconfig "github.com/smartsalon/salon-booking-bot/internal/config"
	"github.com/smartsalon/salon-booking-bot/internal/customers"
	"github.com/smartsalon/salon-booking-bot/internal/dialogue"
	"github.com/smartsalon/salon-booking-bot/internal/http/handlers"
	"github.com/smartsalon/salon-booking-bot/internal/media"
	"github.com/smartsalon/salon-booking-bot/internal/notify"
	"github.com/smartsalon/salon-booking-bot/internal/observability/metrics"
	"github.com/smartsalon/salon-booking-bot/internal/render"
	"github.com/smartsalon/salon-booking-bot/internal/session"
	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon booking bot",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	cat, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("catalog configuration invalid", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("redis unreachable", "error", err)
		os.Exit(1)
	}

	botMetrics := metrics.NewBotMetrics(nil)

	sessions := session.NewStore(rdb, cfg.SessionTTL)
	customerRepo := customers.NewRepository(pool)
	bookingRepo := bookings.NewRepository(pool)
	oracle := availability.NewOracle(cat.TimeSlots, bookingRepo)

	waClient := whatsapp.NewClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneID)
	if cfg.WhatsAppAPIBaseURL != "" {
		waClient.SetBaseURL(cfg.WhatsAppAPIBaseURL)
	}

	shots, err := buildScreenshotStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("screenshot storage unavailable", "error", err)
		os.Exit(1)
	}

	var emailSender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifier := notify.NewService(emailSender, cat, cfg.NotifyEmails, logger)

	finalizer := bookings.NewFinalizer(bookingRepo, logger)
	finalizer.SetObserver(botMetrics)
	finalizer.OnPaymentSubmitted(func(ctx context.Context, b bookings.Booking) {
		notifier.NotifyPaymentSubmitted(ctx, b)
	})

	engine := dialogue.NewEngine(cat, customerRepo, bookingRepo, oracle, finalizer, waClient, shots, logger)
	renderer := render.New(waClient, cat, logger)
	service := dialogue.NewService(engine, sessions, renderer, botMetrics, logger)

	webhookHandler := handlers.NewWebhookHandler(cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret, service, botMetrics, logger)
	adminHandler := handlers.NewAdminHandler(bookingRepo, waClient, cat,
		cfg.AdminPassword, cfg.AdminJWTSecret, cfg.AdminTokenTTL, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		Webhook:         webhookHandler,
		Admin:           adminHandler,
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadCatalog(cfg *appconfig.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(cfg.CatalogPath)
}

// buildScreenshotStore picks S3 when a bucket is configured, local disk
// otherwise.
func buildScreenshotStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (media.Store, error) {
	if cfg.ScreenshotBucket == "" {
		return media.NewLocalStore(cfg.UploadDir, logger)
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return media.NewS3Store(s3.NewFromConfig(awsCfg), cfg.ScreenshotBucket, logger), nil
}
