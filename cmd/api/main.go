// Command api serves the calendasync HTTP API.
//
//	@title						calendasync API
//	@version					1.0
//	@description				Calendar events, sign-in codes and waitlist signups.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
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
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"calendasync/config"
	"calendasync/internal/adapters/auth"
	"calendasync/internal/adapters/email"
	deliveryhttp "calendasync/internal/delivery/http"
	"calendasync/internal/delivery/http/controllers"
	"calendasync/internal/delivery/http/middleware"
	_ "calendasync/internal/docs"
	"calendasync/internal/jobs"
	"calendasync/internal/repository/postgres"
	"calendasync/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgres.Migrate(ctx, db, logger); err != nil {
		return err
	}

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	codeRepo := postgres.NewOneTimeCodeRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := auth.NewJWTAuthority(cfg.JWTSecret)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}
	emailService := services.NewEmailService(mailer, renderer, logger)

	authService := services.NewAuthService(userRepo, codeRepo, hasher, tokens, cfg.JWTExpiry, cfg.LoginCodeTTL, emailService)
	userService := services.NewUserService(userRepo, hasher)
	eventService := services.NewEventService(eventRepo, cfg.RequestTimeout)
	waitlistService := services.NewWaitlistService(waitlistRepo)
	exporter := services.NewCalendarExporter(eventRepo)

	router := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Auth:     controllers.NewAuthController(logger, authService),
		User:     controllers.NewUserController(logger, userService),
		Event:    controllers.NewEventController(logger, eventService),
		Calendar: controllers.NewCalendarController(logger, exporter),
		Waitlist: controllers.NewWaitlistController(logger, waitlistService),
		Health:   controllers.NewHealthController(logger, db),
	}, middleware.RequireAuth(tokens, logger))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, router)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	scheduler := jobs.NewScheduler(logger, cfg.RequestTimeout)
	if err := scheduler.SchedulePurge(cfg.PurgeSchedule, codeRepo); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", "addr", server.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	return g.Wait()
}
