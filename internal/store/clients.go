package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/model"
	"gorm.io/gorm"
)

// Clients is the client directory. Clients are never deleted.
type Clients interface {
	List(ctx context.Context) ([]model.Client, error)
	Get(ctx context.Context, id string) (model.Client, error)
	Insert(ctx context.Context, c model.Client) (model.Client, error)
}

type GormClients struct {
	db    *gorm.DB
	clock clock.Clock
	newID func() string
}

func NewGormClients(db *gorm.DB, clk clock.Clock) *GormClients {
	return &GormClients{db: db, clock: clk, newID: newID}
}

func (s *GormClients) List(ctx context.Context) ([]model.Client, error) {
	items := []model.Client{}
	if err := s.db.WithContext(ctx).Order("joined_at ASC").Find(&items).Error; err != nil {
		return nil, errs.Storage("list clients", err)
	}
	return items, nil
}

func (s *GormClients) Get(ctx context.Context, id string) (model.Client, error) {
	var c model.Client
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c, errs.ErrNotFound
		}
		return c, errs.Storage("get client", err)
	}
	return c, nil
}

func (s *GormClients) Insert(ctx context.Context, c model.Client) (model.Client, error) {
	c = assignClient(c, s.newID, s.clock)
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Client{}, errs.Storage("insert client", err)
	}
	return c, nil
}

// SnapshotClients keeps the directory as one JSON array under KeyClients.
type SnapshotClients struct {
	mu    sync.Mutex
	kv    KV
	clock clock.Clock
	newID func() string
}

func NewSnapshotClients(kv KV, clk clock.Clock) *SnapshotClients {
	return &SnapshotClients{kv: kv, clock: clk, newID: newID}
}

func (s *SnapshotClients) List(ctx context.Context) ([]model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readSnapshot[model.Client](ctx, s.kv, KeyClients)
}

func (s *SnapshotClients) Get(ctx context.Context, id string) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readSnapshot[model.Client](ctx, s.kv, KeyClients)
	if err != nil {
		return model.Client{}, err
	}
	i := slices.IndexFunc(all, func(c model.Client) bool { return c.ID == id })
	if i < 0 {
		return model.Client{}, errs.ErrNotFound
	}
	return all[i], nil
}

func (s *SnapshotClients) Insert(ctx context.Context, c model.Client) (model.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readSnapshot[model.Client](ctx, s.kv, KeyClients)
	if err != nil {
		return model.Client{}, err
	}
	c = assignClient(c, s.newID, s.clock)
	if err := writeSnapshot(ctx, s.kv, KeyClients, append(all, c)); err != nil {
		return model.Client{}, err
	}
	return c, nil
}

func assignClient(c model.Client, id func() string, clk clock.Clock) model.Client {
	if c.ID == "" {
		c.ID = id()
	}
	if c.JoinedAt.IsZero() {
		c.JoinedAt = clk.Now()
	}
	return c
}
