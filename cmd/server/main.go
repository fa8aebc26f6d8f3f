package main

import (
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

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"

	"nextstop/internal/api"
	"nextstop/internal/auth"
	"nextstop/internal/client"
	"nextstop/internal/config"
	"nextstop/internal/db"
	"nextstop/internal/logging"
	"nextstop/internal/repository"
	"nextstop/internal/service"
	"nextstop/internal/session"
)

func main() {
	configFile := pflag.String("config", "config.yaml", "optional YAML config file")
	envFile := pflag.String("env-file", ".env", "optional dotenv file")
	pflag.Parse()

	cfg, err := config.Load(config.Options{EnvFile: *envFile, ConfigFile: *configFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Config{
		Endpoints: client.Endpoints{
			User:         cfg.Services.UserURL,
			Bus:          cfg.Services.BusURL,
			Booking:      cfg.Services.BookingURL,
			Payment:      cfg.Services.PaymentURL,
			Notification: cfg.Services.NotificationURL,
		},
		HTTPClient:             &http.Client{Timeout: cfg.Services.Timeout},
		Logger:                 logger,
		ScheduleDateOffsetDays: cfg.Services.ScheduleDateOffsetDays,
	})

	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure, logger)
	if err != nil {
		return err
	}
	policy, err := auth.NewPolicy(ctx)
	if err != nil {
		return err
	}

	flows, sweeper, closeFlows, err := newFlowStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFlows()

	receipts, closeReceipts, err := newReceiptRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer closeReceipts()

	var verifier service.PaymentVerifier
	if cfg.Stripe.SecretKey != "" {
		verifier = service.NewStripeService(cfg.Stripe.SecretKey)
		logger.Info("stripe payment verification enabled")
	}

	bookings := service.NewBookingService(service.BookingConfig{
		Backend:   c,
		Flows:     flows,
		Receipts:  receipts,
		Confirmer: newSender(cfg, c, logger),
		Verifier:  verifier,
		Currency:  cfg.Payment.Currency,
		Logger:    logger,
	})
	admin := service.NewAdminService(service.ClientAdminBackend(c), logger)
	signIn := service.NewSessionService(service.ClientUserLookup(c), logger)

	if sweeper != nil {
		jobs := service.NewJobService(sweeper, logger)
		if err := jobs.Start(cfg.Flow.SweepSchedule); err != nil {
			return err
		}
		defer jobs.Stop(context.Background())
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewRouter(api.RouterConfig{
			Logger:         logger,
			Sessions:       sessions,
			Policy:         policy,
			Booking:        api.NewBookingHandler(bookings, api.FlowCookies{TTL: cfg.Flow.TTL, Secure: cfg.Session.Secure}, logger),
			Session:        api.NewSessionHandler(sessions, signIn, logger),
			Admin:          api.NewAdminHandler(admin, logger),
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      cfg.Services.Timeout*3 + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped cleanly")
	return nil
}

// newFlowStore returns the configured flow store. The sweeper is nil when
// the store expires entries on its own.
func newFlowStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.FlowStore, service.Sweeper, func(), error) {
	if cfg.Flow.Store == "redis" {
		rdb, err := repository.NewRedisClient(ctx, repository.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("flow store: redis", "addr", cfg.Redis.Addr)
		return repository.NewRedisFlowStore(rdb, cfg.Flow.TTL), nil, func() { rdb.Close() }, nil
	}
	logger.Info("flow store: memory", "ttl", cfg.Flow.TTL)
	store := repository.NewMemoryFlowStore(cfg.Flow.TTL)
	return store, store, func() {}, nil
}

func newReceiptRepository(cfg *config.Config, logger *slog.Logger) (repository.ReceiptRepository, func(), error) {
	if cfg.Postgres.URL == "" {
		logger.Warn("DATABASE_URL not set, receipts are kept in memory")
		return repository.NewMemoryReceiptRepository(), func() {}, nil
	}
	conn, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.Migrate(conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return repository.NewPostgresReceiptRepository(conn), func() { conn.Close() }, nil
}

func newSender(cfg *config.Config, c *client.Client, logger *slog.Logger) *service.SenderService {
	var email service.EmailSender = service.NotificationServiceEmailSender{Client: c}
	if cfg.Notify.Provider == "sendgrid" {
		email = service.NewSendGridEmailSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, logger)
	}
	var sms service.SMSSender
	if cfg.Twilio.Enabled() {
		sms = service.NewTwilioSMSSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, logger)
	}
	logger.Info("notifications", "email", cfg.Notify.Provider, "sms", sms != nil)
	return service.NewSenderService(email, sms, logger)
}
