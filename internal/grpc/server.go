package grpc

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// Check tests one dependency; nil means healthy.
type Check func(ctx context.Context) error

// Deps are the gRPC server collaborators.
type Deps struct {
	// Checks are keyed by health service name, e.g. "crm.store".
	Checks map[string]Check
	Logger logging.Logger
	// Clock drives Watch; the wall clock when nil.
	Clock clock.Clock
}

// Server exposes grpc.health.v1 and reflection. The overall status ("")
// is SERVING only while every check passes.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	checks map[string]Check
	log    logging.Logger
	clock  clock.Clock

	stopOnce sync.Once
}

func NewServer(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	s := &Server{
		health: health.NewServer(),
		checks: deps.Checks,
		log:    log.With("component", "grpc"),
		clock:  clk,
	}
	s.srv = grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverUnary, s.logUnary))
	healthpb.RegisterHealthServer(s.srv, s.health)
	reflection.Register(s.srv)
	s.Refresh(context.Background())
	return s
}

// Refresh runs every check once and publishes the resulting statuses.
func (s *Server) Refresh(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for _, name := range s.names() {
		st := healthpb.HealthCheckResponse_SERVING
		if err := s.checks[name](ctx); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
			s.log.Warn(ctx, "health check failed", "check", name, "error", err)
		}
		s.health.SetServingStatus(name, st)
	}
	s.health.SetServingStatus("", overall)
}

// Watch refreshes statuses every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	t := s.clock.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			s.Refresh(checkCtx)
			cancel()
		}
	}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

// GracefulStop marks every service NOT_SERVING and drains connections.
func (s *Server) GracefulStop() {
	s.stopOnce.Do(func() {
		s.health.Shutdown()
		s.srv.GracefulStop()
	})
}

func (s *Server) names() []string {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := next(ctx, req)
	s.log.Debug(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

func (s *Server) recoverUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error(ctx, "grpc panic", "method", info.FullMethod, "panic", r)
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return next(ctx, req)
}
