// Package healthsrv exposes the standard gRPC health service, backed by a
// periodic database ping.
package healthsrv

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const (
	// ServiceName is reported alongside the overall ("") status.
	ServiceName = "rollcall.Attendance"

	DefaultPollInterval = 30 * time.Second
	pingTimeout         = 3 * time.Second
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	db         Pinger
	interval   time.Duration
	logger     *log.Logger
}

// New listens on addr and prepares the health service.
func New(addr string, db Pinger, logger *log.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return NewWithListener(lis, db, logger, DefaultPollInterval), nil
}

func NewWithListener(lis net.Listener, db Pinger, logger *log.Logger, interval time.Duration) *Server {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		listener:   lis,
		grpcServer: grpcServer,
		health:     healthServer,
		db:         db,
		interval:   interval,
		logger:     logger,
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs the gRPC server and the ping loop until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Printf("grpc health listening at %v", s.listener.Addr())

	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	go s.poll(pollCtx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

func (s *Server) poll(ctx context.Context) {
	s.check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Server) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		s.logger.Printf("health: db ping: %v", err)
		s.setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
}

func (s *Server) setStatus(st grpc_health_v1.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
