package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the grpc.health.v1 service reported alongside the overall "" status.
const ServiceName = "monk.finance.v1.Finance"

const (
	defaultPingInterval = 15 * time.Second
	pingTimeout         = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the grpc.health.v1 service and keeps it in sync with the database.
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	pinger     Pinger
	interval   time.Duration
	log        zerolog.Logger
}

func NewServer(pinger Pinger, interval time.Duration, log zerolog.Logger) *Server {
	if interval <= 0 {
		interval = defaultPingInterval
	}

	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     grpchealth.NewServer(),
		pinger:     pinger,
		interval:   interval,
		log:        log.With().Str("component", "health").Logger(),
	}

	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Refresh pings the database once and publishes the result.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.log.Warn().Err(err).Msg("database ping failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(status)
	return status
}

// Watch pings the database every interval until ctx is cancelled.
func (s *Server) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info().Str("address", lis.Addr().String()).Msg("grpc health listening")
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve grpc: %w", err)
	}
	return nil
}

func (s *Server) ListenAndServe(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return s.Serve(lis)
}

func (s *Server) Stop() error {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	return nil
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
