package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/config"
	grpcserver "github.com/psds-microservice/crm-service/internal/grpc"
	"github.com/psds-microservice/crm-service/internal/handler"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/router"
)

// healthInterval is how often gRPC health statuses are refreshed.
const healthInterval = 15 * time.Second

// API is the api mode of the service: HTTP and gRPC servers over the loaded desks.
type API struct {
	cfg      *config.Config
	log      logging.Logger
	stores   *Stores
	services *Services
	httpSrv  *http.Server
	grpcSrv  *grpcserver.Server
	lis      net.Listener
}

// NewAPI opens the configured store, loads both desks and prepares the servers.
func NewAPI(ctx context.Context, cfg *config.Config, log logging.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	clk := clock.Real()

	st, err := OpenStores(ctx, cfg, clk, true)
	if err != nil {
		return nil, err
	}
	svc, err := NewServices(ctx, cfg, st, clk, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		svc.Close()
		_ = st.Close()
		return nil, fmt.Errorf("grpc listen %s: %w (port busy: stop the other process or set GRPC_PORT)", cfg.GRPCAddr(), err)
	}
	grpcSrv := grpcserver.NewServer(grpcserver.Deps{
		Checks: map[string]grpcserver.Check{"crm.store": st.Ping},
		Logger: log,
		Clock:  clk,
	})

	engine := router.New(router.Handlers{
		Health:   handler.NewHealthHandler(map[string]handler.Check{"store": st.Ping}),
		Contact:  handler.NewContactHandler(svc.Requests, log),
		Requests: handler.NewRequestHandler(svc.Requests, log),
		Admin:    handler.NewAdminHandler(svc.Requests, svc.Tickets, log),
		Tickets:  handler.NewTicketHandler(svc.Tickets, log),
		Clients:  handler.NewClientHandler(svc.Tickets, log),
	}, router.Options{
		AllowedOrigins: cfg.CORSOrigins,
		Logger:         log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		log:      log,
		stores:   st,
		services: svc,
		httpSrv:  httpSrv,
		grpcSrv:  grpcSrv,
		lis:      lis,
	}, nil
}

// Handler exposes the HTTP routes, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.httpSrv.Handler
}

// Run starts the HTTP and gRPC servers and blocks until ctx is cancelled or
// a server fails. Resources are released before it returns.
func (a *API) Run(ctx context.Context) error {
	defer a.close()

	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info(ctx, "http server listening", "addr", a.httpSrv.Addr, "backend", a.stores.Backend)
	a.log.Info(ctx, "endpoints",
		"swagger", base+router.PathSwagger,
		"health", base+router.PathHealth,
		"ready", base+router.PathReady,
		"contact", base+"/api/contact",
		"admin", base+"/api/admin/",
		"tickets", base+"/api/v1/tickets",
	)
	a.log.Info(ctx, "grpc server listening", "addr", a.lis.Addr().String(), "reflection", true)

	errCh := make(chan error, 2)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := a.grpcSrv.Serve(a.lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.grpcSrv.Watch(watchCtx, healthInterval)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.log.Error(ctx, "server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	a.grpcSrv.GracefulStop()
	return runErr
}

func (a *API) close() {
	a.services.Close()
	if err := a.stores.Close(); err != nil {
		a.log.Warn(context.Background(), "close store", "error", err)
	}
}
