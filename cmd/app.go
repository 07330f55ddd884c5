package main

import (
	"context"
	"fmt"
	"proyecto_reservas/internal/config"
	"proyecto_reservas/internal/entities"
	"proyecto_reservas/internal/infrastructure"
	"proyecto_reservas/internal/interfaces"
	"proyecto_reservas/internal/repository"
	"proyecto_reservas/internal/usecases"
	"time"

	"github.com/sirupsen/logrus"
)

// app holds what every command needs: config, logger, tenants and the
// Telegram client. Postgres is optional.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	pg       *infrastructure.PostgresClient
	tenants  *usecases.TenantRegistry
	telegram *infrastructure.TelegramBotManager
	closers  []func()
}

func newApp(ctx context.Context, envFiles []string) (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:    cfg,
		logger: infrastructure.NewLogger(cfg.LogLevel, cfg.LogFormat),
	}

	var source config.TenantSource
	if cfg.DatabaseURL != "" {
		pg, err := infrastructure.NewPostgresClient(ctx, cfg.DatabaseURL, a.logger)
		if err != nil {
			return nil, err
		}
		a.pg = pg
		a.closers = append(a.closers, pg.Close)
		source = repository.NewTenantRepository(pg.Pool)
	}

	tenants, err := config.LoadTenants(ctx, cfg, source)
	if err != nil {
		a.close()
		return nil, err
	}
	a.tenants = usecases.NewTenantRegistry(tenants)

	for _, id := range a.tenants.IDs() {
		t, _ := a.tenants.Resolve(id)
		if _, err := t.RequireCredential(); err != nil {
			a.logger.WithField("tenant", id).Warn("tenant has no bot token; replies will be dropped")
		}
	}

	a.telegram = infrastructure.NewTelegramBotManager(cfg.TelegramAPIEndpoint, cfg.SendTimeout)
	return a, nil
}

// sessionStore opens the configured backend. The returned sweep function
// removes expired sessions where the backend needs it; it may be nil.
func (a *app) sessionStore(ctx context.Context) (interfaces.SessionStore, func(context.Context), error) {
	switch a.cfg.SessionBackend {
	case config.BackendSQLite:
		store, err := infrastructure.NewSQLiteSessionStore(a.cfg.SQLitePath, a.cfg.SessionTTL, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { store.Close() })
		sweep := func(ctx context.Context) {
			if n, err := store.Sweep(ctx); err != nil {
				a.logger.WithError(err).Warn("session sweep failed")
			} else if n > 0 {
				a.logger.WithField("removed", n).Debug("expired sessions removed")
			}
		}
		return store, sweep, nil

	case config.BackendRedis:
		client, err := infrastructure.NewRedisClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { client.Close() })
		return infrastructure.NewRedisSessionStore(client, a.cfg.SessionTTL), nil, nil

	case config.BackendMemory:
		store := infrastructure.NewMemorySessionStore(a.cfg.SessionTTL)
		a.closers = append(a.closers, func() { store.Close() })
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", a.cfg.SessionBackend)
}

func (a *app) reservations() interfaces.ReservationRecorder {
	if a.pg == nil {
		return nil
	}
	return repository.NewReservationRepository(a.pg.Pool)
}

// admins returns the configured operator plus any stored in Postgres.
func (a *app) admins(ctx context.Context) ([]entities.AdminUser, error) {
	admins := []entities.AdminUser{{Username: a.cfg.AdminUsername, PasswordHash: a.cfg.AdminPasswordHash}}
	if a.pg == nil {
		return admins, nil
	}
	stored, err := repository.NewAdminUserRepository(a.pg.Pool).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load admin users: %w", err)
	}
	return append(admins, stored...), nil
}

func (a *app) registrar() *usecases.WebhookRegistrar {
	return usecases.NewWebhookRegistrar(a.telegram, a.tenants, a.cfg.BaseURL)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}
