package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/clinicops/clinic-portal/libs/config"
	"github.com/clinicops/clinic-portal/libs/httpx"
	"github.com/clinicops/clinic-portal/libs/kafkax"
	otelx "github.com/clinicops/clinic-portal/libs/otel"
	"github.com/clinicops/clinic-portal/libs/runtime"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/availability"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/conflict"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/grpcserver"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/handlers"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/metrics"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/notify"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/outbox"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/policy"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/validator"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "scheduling-service")
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	if err := run(service, logger); err != nil {
		logger.Error("scheduling service failed", "err", err)
		os.Exit(1)
	}
}

func run(service string, logger *slog.Logger) error {
	port, err := config.Port("PORT", "8085")
	if err != nil {
		return err
	}
	grpcPort, err := config.Port("GRPC_PORT", "9095")
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(config.String("CLINIC_TIMEZONE", "UTC"))
	if err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE: %w", err)
	}
	freeWindow, err := config.Int("RESCHEDULE_FREE_WINDOW_HOURS", 24)
	if err != nil {
		return err
	}
	fee, err := config.Decimal("RESCHEDULE_FEE", decimal.RequireFromString("50.00"))
	if err != nil {
		return err
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer st.close()

	rd, err := openRedis(ctx, service, st.templates, logger)
	if err != nil {
		return err
	}
	defer rd.close()

	gateway, err := newGateway()
	if err != nil {
		return err
	}
	notifier, err := newNotifier(logger)
	if err != nil {
		return err
	}
	verifier, err := newVerifier()
	if err != nil {
		return err
	}

	hooks := []lifecycle.Hook{notify.NewHook(st.users, notifier)}
	brokers := config.String("KAFKA_BROKERS", "")
	if st.pool != nil {
		outboxRepo := outbox.NewRepository()
		hooks = append(hooks, outbox.NewHook(st.pool, outboxRepo))

		var writer outbox.MessageWriter
		if list := kafkax.SplitBrokers(brokers); len(list) > 0 {
			kw := kafkax.NewWriter(list)
			defer kw.Close()
			writer = kw
		}
		publisher := outbox.NewPublisher(st.pool, outboxRepo, writer, logger, outbox.PublisherConfig{
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	}

	detector := conflict.NewDetector(st.conflicts)
	resolver := availability.NewResolver(rd.templates, detector, loc)
	svc := lifecycle.New(lifecycle.Deps{
		Store:      st.appointments,
		Users:      st.users,
		Validator:  validator.New(st.users, resolver, detector, loc),
		Resolver:   resolver,
		Payments:   gateway,
		Refunds:    policy.NewGatewayRefundPolicy(gateway),
		Reschedule: policy.NewFreeWindowPolicy(freeWindow, fee, loc),
		Fees:       policy.NewLoggingFeeCharger(logger),
		Authorizer: policy.DefaultAuthorizer(),
		Hooks:      hooks,
		Logger:     logger,
		Metrics:    m,
		Location:   loc,
	})

	checks := append([]runtime.ReadyCheck{}, st.checks...)
	checks = append(checks, rd.checks...)
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	api := chi.NewRouter()
	api.Mount("/api/v1", handlers.NewAppointmentHandler(svc, logger).Routes(verifier))

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/api/v1/", httpx.RateLimit(rd.limiter, nil, func(err error) {
		logger.Warn("rate limiter unavailable", "err", err)
	}, true)(api))

	httpHandler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS"), MaxAge: 10 * time.Minute}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		return err
	}
	grpcSrv := grpcserver.New(logger, checks...)
	go func() {
		if err := grpcSrv.Serve(ctx, lis, 10*time.Second); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	if err := runtime.ServeHTTP(ctx, srv, logger, 10*time.Second); err != nil {
		return err
	}
	logger.Info("http server stopped")
	return nil
}
