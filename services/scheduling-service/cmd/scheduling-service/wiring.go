package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clinicops/clinic-portal/libs/auth"
	"github.com/clinicops/clinic-portal/libs/config"
	"github.com/clinicops/clinic-portal/libs/db"
	"github.com/clinicops/clinic-portal/libs/httpx"
	"github.com/clinicops/clinic-portal/libs/runtime"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/availability"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/cache"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/conflict"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/notify"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/payments"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/storage"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/validator"
	"github.com/redis/go-redis/v9"
)

type stores struct {
	appointments lifecycle.AppointmentStore
	users        validator.UserLookup
	templates    availability.TemplateSource
	conflicts    conflict.Store
	pool         *db.Pool
	checks       []runtime.ReadyCheck
}

func (s stores) close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStore selects Postgres or the in-memory store from STORE.
func openStore(ctx context.Context, logger *slog.Logger) (stores, error) {
	switch mode := strings.ToLower(config.String("STORE", "postgres")); mode {
	case "memory":
		mem := storage.NewMemoryStore()
		seedDemo(mem)
		logger.Warn("using in-memory store; data is lost on restart")
		return stores{appointments: mem, users: mem, templates: mem, conflicts: mem}, nil
	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			return stores{}, err
		}
		pool, err := db.Open(ctx, dbURL, db.DefaultOptions())
		if err != nil {
			return stores{}, fmt.Errorf("db connection failed: %w", err)
		}
		appts := storage.NewAppointmentRepository(pool)
		return stores{
			appointments: appts,
			users:        storage.NewUserRepository(pool),
			templates:    storage.NewTemplateRepository(pool),
			conflicts:    appts,
			pool:         pool,
			checks:       []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}},
		}, nil
	default:
		return stores{}, fmt.Errorf("STORE must be postgres or memory (got %q)", mode)
	}
}

type redisDeps struct {
	templates availability.TemplateSource
	limiter   httpx.Limiter
	checks    []runtime.ReadyCheck
	client    *redis.Client
}

func (r redisDeps) close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}

// openRedis wraps templates in the Redis cache and shares the rate limit
// across replicas when REDIS_URL is set.
func openRedis(ctx context.Context, service string, templates availability.TemplateSource, logger *slog.Logger) (redisDeps, error) {
	limit, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return redisDeps{}, err
	}
	url := config.String("REDIS_URL", "")
	if url == "" {
		return redisDeps{templates: templates, limiter: httpx.NewMemoryLimiter(limit, time.Minute)}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return redisDeps{}, fmt.Errorf("REDIS_URL: %w", err)
	}
	ttl, err := config.Duration("TEMPLATE_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return redisDeps{}, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable at startup", "err", err)
	}
	return redisDeps{
		templates: cache.NewTemplateCache(rdb, templates, ttl, logger),
		limiter:   httpx.NewRedisLimiter(rdb, limit, time.Minute, service+":rl"),
		checks: []runtime.ReadyCheck{{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}}},
		client: rdb,
	}, nil
}

func newGateway() (payments.Gateway, error) {
	switch provider := strings.ToLower(config.String("PAYMENT_PROVIDER", "mock")); provider {
	case "mock":
		return payments.NewMockGateway(), nil
	case "stripe":
		key, err := config.RequiredString("STRIPE_SECRET_KEY")
		if err != nil {
			return nil, err
		}
		return payments.NewStripeGateway(payments.StripeConfig{
			SecretKey: key,
			Currency:  config.String("STRIPE_CURRENCY", "brl"),
			BaseURL:   config.String("STRIPE_API_BASE", ""),
		}), nil
	default:
		return nil, fmt.Errorf("PAYMENT_PROVIDER must be mock or stripe (got %q)", provider)
	}
}

func newNotifier(logger *slog.Logger) (notify.Notifier, error) {
	switch provider := strings.ToLower(config.String("EMAIL_PROVIDER", "stub")); provider {
	case "stub":
		return notify.NewStubSender(logger), nil
	case "smtp":
		host, err := config.RequiredString("SMTP_HOST")
		if err != nil {
			return nil, err
		}
		port, err := config.Port("SMTP_PORT", "1025")
		if err != nil {
			return nil, err
		}
		return notify.NewSMTPSender(host, port, config.String("SMTP_FROM", "")), nil
	case "sendgrid":
		key, err := config.RequiredString("SENDGRID_API_KEY")
		if err != nil {
			return nil, err
		}
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    key,
			FromEmail: config.String("SENDGRID_FROM_EMAIL", "no-reply@clinic.local"),
			FromName:  config.String("SENDGRID_FROM_NAME", ""),
		}, logger), nil
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be stub, smtp or sendgrid (got %q)", provider)
	}
}

// newVerifier prefers JWKS (RS256 from the auth provider) over a shared
// HS256 secret.
func newVerifier() (auth.Verifier, error) {
	if url := config.String("JWKS_URL", ""); url != "" {
		ttl, err := config.Duration("JWKS_CACHE_TTL", 5*time.Minute)
		if err != nil {
			return nil, err
		}
		return auth.NewJWKSClient(url, ttl), nil
	}
	secret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		return nil, fmt.Errorf("%w (or set JWKS_URL)", err)
	}
	return auth.NewHS256Verifier(secret), nil
}
