package application

import (
	"context"
	"fmt"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/config"
	"github.com/psds-microservice/crm-service/internal/database"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/store"
)

// Stores bundles the record stores of the configured backend.
type Stores struct {
	Backend  string
	Requests store.Store[model.RequestStatus, model.ContactRequest]
	Tickets  store.Store[model.TicketStatus, model.Ticket]
	Clients  store.Clients

	ping  func(ctx context.Context) error
	close func() error
}

// pingKV is a snapshot backend that can report its health.
type pingKV interface {
	store.KV
	Ping(ctx context.Context) error
}

// OpenStores connects to cfg.StoreBackend. For postgres the schema is
// migrated first when migrate is true.
func OpenStores(ctx context.Context, cfg *config.Config, clk clock.Clock, migrate bool) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if migrate {
			if err := database.MigrateUp(ctx, cfg.DatabaseURL()); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		db, err := database.Open(cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		return &Stores{
			Backend:  cfg.StoreBackend,
			Requests: store.NewGormStore[model.RequestStatus, model.ContactRequest](db, clk),
			Tickets:  store.NewGormStore[model.TicketStatus, model.Ticket](db, clk),
			Clients:  store.NewGormClients(db, clk),
			ping:     func(ctx context.Context) error { return database.Ping(ctx, db) },
			close:    sqlDB.Close,
		}, nil
	case config.BackendSQLite:
		kv, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return snapshotStores(cfg.StoreBackend, kv, clk), nil
	case config.BackendRedis:
		rdb, err := store.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return snapshotStores(cfg.StoreBackend, store.NewRedisKV(rdb), clk), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func snapshotStores(backend string, kv pingKV, clk clock.Clock) *Stores {
	return &Stores{
		Backend:  backend,
		Requests: store.NewSnapshotStore[model.RequestStatus, model.ContactRequest](kv, store.KeyRequests, clk),
		Tickets:  store.NewSnapshotStore[model.TicketStatus, model.Ticket](kv, store.KeyTickets, clk),
		Clients:  store.NewSnapshotClients(kv, clk),
		ping:     kv.Ping,
		close:    kv.Close,
	}
}

func (s *Stores) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
