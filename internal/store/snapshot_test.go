package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
	fail error
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, false, m.fail
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Close() error { return nil }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newSnapshotRequests(kv KV) (*SnapshotStore[model.RequestStatus, model.ContactRequest], *clock.Fake) {
	clk := clock.NewFake(t0)
	s := NewSnapshotStore[model.RequestStatus, model.ContactRequest](kv, KeyRequests, clk)
	s.newID = sequentialIDs()
	return s, clk
}

func submit(t *testing.T, s Store[model.RequestStatus, model.ContactRequest], name string) model.ContactRequest {
	t.Helper()
	r, err := s.Insert(context.Background(), model.NewContactRequest(name, "a@b.com", "Hi there", "long enough message"))
	require.NoError(t, err)
	return r
}

func TestSnapshotStore_InsertThenList(t *testing.T) {
	s, clk := newSnapshotRequests(newMemKV())
	ctx := context.Background()

	first := submit(t, s, "First")
	clk.Advance(time.Minute)
	second := submit(t, s, "Second")

	page, err := s.List(ctx, Query[model.RequestStatus]{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, second.ID, page.Records[0].ID)
	assert.Equal(t, first.ID, page.Records[1].ID)
	for _, r := range page.Records {
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.UpdatedAt.Before(r.CreatedAt))
		assert.Equal(t, model.RequestStatusNew, r.Status)
	}
}

func TestSnapshotStore_ListStatusAndPaging(t *testing.T) {
	s, clk := newSnapshotRequests(newMemKV())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		submit(t, s, fmt.Sprintf("Name %d", i))
		clk.Advance(time.Minute)
	}
	_, err := s.UpdateStatus(ctx, "id-2", model.RequestStatusRead)
	require.NoError(t, err)

	page, err := s.List(ctx, Query[model.RequestStatus]{Status: model.RequestStatusNew, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, []string{"id-4", "id-3"}, []string{page.Records[0].ID, page.Records[1].ID})

	page, err = s.List(ctx, Query[model.RequestStatus]{Offset: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Empty(t, page.Records)
}

func TestSnapshotStore_UpdateStatus(t *testing.T) {
	s, _ := newSnapshotRequests(newMemKV())
	ctx := context.Background()
	r := submit(t, s, "Al")

	got, err := s.UpdateStatus(ctx, r.ID, model.RequestStatusRead)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRead, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	stored, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Status, stored.Status)

	_, err = s.UpdateStatus(ctx, "nope", model.RequestStatusRead)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = s.UpdateStatus(ctx, r.ID, model.RequestStatus("archived"))
	assert.ErrorIs(t, err, errs.ErrInvalidStatus)
}

func TestSnapshotStore_Save(t *testing.T) {
	s, clk := newSnapshotRequests(newMemKV())
	ctx := context.Background()
	r := submit(t, s, "Al")

	_, err := s.Save(ctx, r.WithNotes("richiamare lunedì", clk.Now().Add(time.Second)))
	require.NoError(t, err)

	stored, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "richiamare lunedì", stored.AdminNotes)

	_, err = s.Save(ctx, model.ContactRequest{ID: "ghost"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSnapshotStore_BackendFailure(t *testing.T) {
	kv := newMemKV()
	s, _ := newSnapshotRequests(kv)
	kv.fail = errors.New("quota exceeded")

	_, err := s.Insert(context.Background(), model.NewContactRequest("Al", "a@b.com", "Hi there", "long enough message"))
	assert.ErrorIs(t, err, errs.ErrStorage)

	_, err = s.List(context.Background(), Query[model.RequestStatus]{})
	assert.ErrorIs(t, err, errs.ErrStorage)
}

func TestSnapshotStore_CorruptSnapshot(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyRequests] = []byte("{not json")
	s, _ := newSnapshotRequests(kv)

	_, err := s.List(context.Background(), Query[model.RequestStatus]{})
	assert.ErrorIs(t, err, errs.ErrStorage)
}

func TestSnapshotStore_LegacyTickets(t *testing.T) {
	kv := newMemKV()
	kv.data[KeyTickets] = []byte(`[
		{"id":"#T002","title":"Chatbot Customer Service","type":"chatbot","budget":"€3000-5000","priority":"urgent","status":"open","created_at":"2024-01-18T09:15:00Z","updated_at":"2024-01-18T09:15:00Z","files":["requirements.docx"]},
		{"id":"#T001","title":"Sito Web Aziendale","type":"website","budget":"€1000-3000","priority":"normal","status":"in-progress","created_at":"2024-01-15T10:30:00Z","updated_at":"2024-01-20T14:45:00Z","files":["logo.png","brand-guidelines.pdf"]}
	]`)
	s := NewSnapshotStore[model.TicketStatus, model.Ticket](kv, KeyTickets, clock.NewFake(t0))

	page, err := s.List(context.Background(), Query[model.TicketStatus]{Status: model.TicketStatusInProgress})

	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "#T001", page.Records[0].ID)
	assert.Len(t, page.Records[0].Files, 2)
}

func TestSnapshotStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crm.db")

	kv, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	s, _ := newSnapshotRequests(kv)
	r := submit(t, s, "Al")
	_, err = s.UpdateStatus(ctx, r.ID, model.RequestStatusCompleted)
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	s2, _ := newSnapshotRequests(reopened)

	got, err := s2.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCompleted, got.Status)
	assert.Equal(t, r.CreatedAt, got.CreatedAt)
}

func TestSnapshotClients(t *testing.T) {
	s := NewSnapshotClients(newMemKV(), clock.NewFake(t0))
	s.newID = sequentialIDs()
	ctx := context.Background()

	a, err := s.Insert(ctx, model.NewClient("Mario Rossi", "mario@azienda.it", "Azienda SRL", ""))
	require.NoError(t, err)
	_, err = s.Insert(ctx, model.NewClient("Giulia Bianchi", "giulia@startup.it", "Startup Innovativa", ""))
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Mario Rossi", all[0].Name)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Azienda SRL", got.Company)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
