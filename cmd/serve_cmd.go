package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"proyecto_reservas/internal/infrastructure"
	handler "proyecto_reservas/internal/interfaces/http"
	"proyecto_reservas/internal/usecases"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 15 * time.Second
	sqliteSweepEvery  = 10 * time.Minute
	readHeaderTimeout = 10 * time.Second
)

func newServeCmd(envFiles *[]string) *cobra.Command {
	var registerWebhooks bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and admin HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, *envFiles, registerWebhooks)
		},
	}
	cmd.Flags().BoolVar(&registerWebhooks, "register-webhooks", false, "call setWebhook for every tenant on startup (needs BASE_URL)")
	return cmd
}

func runServe(ctx context.Context, envFiles []string, registerWebhooks bool) error {
	a, err := newApp(ctx, envFiles)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, logger := a.cfg, a.logger

	sessions, sweep, err := a.sessionStore(ctx)
	if err != nil {
		return err
	}
	if sweep != nil {
		go runEvery(ctx, sqliteSweepEvery, sweep)
	}

	limiter := infrastructure.NewSendLimiter(cfg.SendRate, cfg.SendBurst)
	defer limiter.Close()
	deduper := infrastructure.NewUpdateDeduper(cfg.DedupeTTL, cfg.DedupeSize)
	defer deduper.Close()

	dispatcher := usecases.NewNotificationDispatcher(a.telegram, limiter, cfg.SendTimeout, logger)
	reservations := a.reservations()
	service := usecases.NewWebhookService(usecases.WebhookServiceDeps{
		Tenants:    a.tenants,
		Engine:     usecases.NewConversationEngine(),
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Locker:     infrastructure.NewKeyedLocker(),
		Dedupe:     deduper,
		Recorder:   reservations,
		Logger:     logger,
	})
	registrar := a.registrar()
	admins, err := a.admins(ctx)
	if err != nil {
		return err
	}
	auth := usecases.NewAuthUsecase(cfg.JWTSecret, admins...)
	if !auth.Enabled() {
		logger.Warn("admin API disabled: set JWT_SECRET and ADMIN_PASSWORD_HASH or add admin users")
	}

	if registerWebhooks {
		registerAll(ctx, a, registrar)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.SetupRoutes(r, handler.RouteDeps{
		Telegram:     handler.NewTelegramHandler(service, cfg.DefaultTenant, logger),
		Admin:        handler.NewAdminHandler(a.tenants, registrar, reservations, a.telegram, logger),
		Auth:         auth,
		Middleware:   handler.NewMiddleware(cfg.JWTSecret, logger),
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     srv.Addr,
			"tenants":  a.tenants.IDs(),
			"sessions": cfg.SessionBackend,
			"postgres": a.pg != nil,
		}).Info("server starting")
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.WithField("telegram_clients", a.telegram.ActiveBots()).Info("server stopped")
	return nil
}

// registerAll points every tenant bot at this server. Failures are logged and
// do not stop startup.
func registerAll(ctx context.Context, a *app, registrar *usecases.WebhookRegistrar) {
	for _, id := range a.tenants.IDs() {
		callCtx, cancel := commandContext(ctx, a.cfg.SendTimeout)
		url, err := registrar.Register(callCtx, id)
		cancel()
		log := a.logger.WithField("tenant", id)
		if err != nil {
			log.WithError(err).Warn("webhook registration failed")
			continue
		}
		log.WithField("url", url).Info("webhook registered")
	}
}

func runEvery(ctx context.Context, every time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
