package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/garage-service/internal/auth"
	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/db"
	"github.com/ukydev/garage-service/internal/events"
	"github.com/ukydev/garage-service/internal/handlers"
	"github.com/ukydev/garage-service/internal/mail"
	"github.com/ukydev/garage-service/internal/workshop"
)

const shutdownTimeout = 10 * time.Second

// newLogger builds the process logger from the configured level and format.
func newLogger(cfg *config.Config) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// newPublisher connects to the MQTT broker, or returns a no-op publisher when
// none is configured or it cannot be reached.
func newPublisher(cfg *config.Config, logger log.FieldLogger) events.Publisher {
	if cfg.MQTTBroker == "" {
		logger.Info("MQTT_BROKER not set, service events disabled")
		return events.NopPublisher{}
	}
	pub, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to connect to MQTT broker, service events disabled")
		return events.NopPublisher{}
	}
	logger.WithField("broker", cfg.MQTTBroker).Info("Connected to MQTT broker")
	return pub
}

// newHandler assembles the application around an open store.
func newHandler(cfg *config.Config, store db.Store, publisher events.Publisher, logger log.FieldLogger) (http.Handler, error) {
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set, email delivery disabled")
	}
	shop := workshop.New(workshop.Deps{
		Store:    store,
		Events:   publisher,
		Mailer:   mail.New(cfg.ResendAPIKey, cfg.MailFrom),
		Branding: cfg.Branding,
		Logger:   logger,
	})

	authService, err := auth.NewService(cfg.ShopPassword, cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	if !authService.Enabled() {
		logger.Warn("SHOP_PASSWORD not set, API is open")
	}
	return handlers.NewRouter(shop, authService, logger, cfg.TrustProxy), nil
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	handler, err := newHandler(cfg, store, publisher, logger)
	if err != nil {
		return err
	}

	srv := newServer(cfg, handler)

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"port":  cfg.ServerPort,
			"store": cfg.StoreDriver,
			"shop":  cfg.Branding.ShopName,
		}).Info("HTTP server listening")
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

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}
