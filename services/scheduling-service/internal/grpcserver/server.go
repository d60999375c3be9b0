// Package grpcserver exposes the standard gRPC health service for the
// scheduling service, driven by the same dependency checks as /readyz.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/clinicops/clinic-portal/libs/grpcx"
	"github.com/clinicops/clinic-portal/libs/runtime"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported to health probes.
const ServiceName = "clinic.scheduling.v1.Scheduling"

type Server struct {
	srv    *grpc.Server
	health *health.Server
	checks []runtime.ReadyCheck
	logger *slog.Logger
}

func New(logger *slog.Logger, checks ...runtime.ReadyCheck) *Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcx.UnaryServerRequestIDInterceptor(),
			grpcx.UnaryServerLogInterceptor(logger),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{srv: srv, health: hs, checks: checks, logger: logger}
}

// Refresh runs every check and publishes the combined serving status.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for _, c := range s.checks {
		if c.Check == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Check(cctx)
		cancel()
		if err != nil {
			s.logger.WarnContext(ctx, "grpc health check failed", "check", c.Name, "err", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

// Serve blocks until ctx is done, refreshing health every interval.
func (s *Server) Serve(ctx context.Context, lis net.Listener, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.srv.GracefulStop()
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()

	s.logger.Info("grpc server starting", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
