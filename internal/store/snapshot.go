package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/record"
)

// Snapshot keys of the local fallback format.
const (
	KeyRequests = "crm:requests"
	KeyTickets  = "crm:tickets"
	KeyClients  = "crm:clients"
)

// KV is a minimal byte-oriented key/value backend.
type KV interface {
	// Get reports ok=false for a missing key.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// SnapshotStore keeps a whole collection as one JSON array under a single
// key. Every write rewrites the array. There is no schema versioning.
type SnapshotStore[S record.Status, R record.Record[S, R]] struct {
	mu    sync.Mutex
	kv    KV
	key   string
	clock clock.Clock
	newID func() string
}

func NewSnapshotStore[S record.Status, R record.Record[S, R]](kv KV, key string, clk clock.Clock) *SnapshotStore[S, R] {
	return &SnapshotStore[S, R]{kv: kv, key: key, clock: clk, newID: newID}
}

func (s *SnapshotStore[S, R]) load(ctx context.Context) ([]R, error) {
	return readSnapshot[R](ctx, s.kv, s.key)
}

func (s *SnapshotStore[S, R]) List(ctx context.Context, q Query[S]) (Page[R], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return Page[R]{}, err
	}
	matched := record.Apply(all, record.Filter[S]{Status: q.Status})
	slices.SortStableFunc(matched, func(a, b R) int {
		return b.Created().Compare(a.Created())
	})
	return Page[R]{Records: paginate(matched, q.Limit, q.Offset), Total: int64(len(matched))}, nil
}

func (s *SnapshotStore[S, R]) Get(ctx context.Context, id string) (R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		var zero R
		return zero, err
	}
	i := indexOf(all, id)
	if i < 0 {
		var zero R
		return zero, errs.ErrNotFound
	}
	return all[i], nil
}

func (s *SnapshotStore[S, R]) Insert(ctx context.Context, r R) (R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		var zero R
		return zero, err
	}
	r = r.Assign(s.newID(), s.clock.Now())
	if err := writeSnapshot(ctx, s.kv, s.key, append([]R{r}, all...)); err != nil {
		var zero R
		return zero, err
	}
	return r, nil
}

func (s *SnapshotStore[S, R]) UpdateStatus(ctx context.Context, id string, status S) (R, error) {
	if !status.Valid() {
		var zero R
		return zero, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, string(status))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		var zero R
		return zero, err
	}
	i := indexOf(all, id)
	if i < 0 {
		var zero R
		return zero, errs.ErrNotFound
	}
	next, err := record.Transition(all[i], status, s.clock.Now())
	if err != nil {
		return all[i], err
	}
	all[i] = next
	if err := writeSnapshot(ctx, s.kv, s.key, all); err != nil {
		var zero R
		return zero, err
	}
	return next, nil
}

func (s *SnapshotStore[S, R]) Save(ctx context.Context, r R) (R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		var zero R
		return zero, err
	}
	i := indexOf(all, r.RecordID())
	if i < 0 {
		var zero R
		return zero, errs.ErrNotFound
	}
	all[i] = r
	if err := writeSnapshot(ctx, s.kv, s.key, all); err != nil {
		var zero R
		return zero, err
	}
	return r, nil
}

func indexOf[S record.Status, R record.Record[S, R]](records []R, id string) int {
	return slices.IndexFunc(records, func(r R) bool { return r.RecordID() == id })
}

func readSnapshot[T any](ctx context.Context, kv KV, key string) ([]T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, errs.Storage("read snapshot", err)
	}
	if !ok || len(raw) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errs.Storage("decode snapshot", fmt.Errorf("%s: %w", key, err))
	}
	return out, nil
}

func writeSnapshot[T any](ctx context.Context, kv KV, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return errs.Storage("encode snapshot", err)
	}
	if err := kv.Put(ctx, key, raw); err != nil {
		return errs.Storage("write snapshot", err)
	}
	return nil
}
