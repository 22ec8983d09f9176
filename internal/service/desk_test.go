package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/psds-microservice/crm-service/internal/searchindex"
	"github.com/psds-microservice/crm-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Close() error { return nil }

// flakyStore fails writes while broken is set.
type flakyStore[S record.Status, R record.Record[S, R]] struct {
	store.Store[S, R]
	broken bool
}

var errDown = errs.Storage("write", errors.New("connection refused"))

func (f *flakyStore[S, R]) Insert(ctx context.Context, r R) (R, error) {
	if f.broken {
		var zero R
		return zero, errDown
	}
	return f.Store.Insert(ctx, r)
}

func (f *flakyStore[S, R]) UpdateStatus(ctx context.Context, id string, s S) (R, error) {
	if f.broken {
		var zero R
		return zero, errDown
	}
	return f.Store.UpdateStatus(ctx, id, s)
}

func (f *flakyStore[S, R]) Save(ctx context.Context, r R) (R, error) {
	if f.broken {
		var zero R
		return zero, errDown
	}
	return f.Store.Save(ctx, r)
}

type recordedEvent struct {
	name    string
	payload map[string]any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) Produce(_ context.Context, event string, payload map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{event, payload})
}

func (f *fakeEvents) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.name
	}
	return out
}

type fakeIndex struct {
	mu   sync.Mutex
	docs []searchindex.Document
}

func (f *fakeIndex) Index(_ context.Context, doc searchindex.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return nil
}

type harness struct {
	requests *Requests
	store    *flakyStore[model.RequestStatus, model.ContactRequest]
	clock    *clock.Fake
	events   *fakeEvents
	index    *fakeIndex
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewFake(t0)
	kv := &memKV{data: map[string][]byte{}}
	st := &flakyStore[model.RequestStatus, model.ContactRequest]{
		Store: store.NewSnapshotStore[model.RequestStatus, model.ContactRequest](kv, store.KeyRequests, clk),
	}
	h := &harness{store: st, clock: clk, events: &fakeEvents{}, index: &fakeIndex{}}
	h.requests = NewRequests(st, Deps{Events: h.events, Index: h.index, Clock: clk})
	require.NoError(t, h.requests.Load(context.Background()))
	return h
}

func (h *harness) submit(t *testing.T, name string) model.ContactRequest {
	t.Helper()
	r, err := h.requests.Submit(context.Background(), name, "a@b.com", "Hi there", "long enough message")
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	return r
}

func TestDesk_SubmitPrependsConfirmedRecord(t *testing.T) {
	h := newHarness(t)

	first := h.submit(t, "First")
	second := h.submit(t, "Second")

	recs := h.requests.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, second.ID, recs[0].ID)
	assert.Equal(t, first.ID, recs[1].ID)
	assert.Equal(t, model.RequestStatusNew, first.Status)
	assert.NotEmpty(t, first.ID)
}

func TestDesk_SubmitValidationError(t *testing.T) {
	h := newHarness(t)

	_, err := h.requests.Submit(context.Background(), "Al", "a@b.com", "Hi there", "short")

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "message", ve.Field)
	assert.Zero(t, h.requests.RequestDesk.items.Len())

	n, ok := h.requests.Notice()
	require.True(t, ok)
	assert.Equal(t, LevelError, n.Level)
	assert.Contains(t, n.Text, "message")
}

func TestDesk_SubmitThenReadStampsUpdatedAt(t *testing.T) {
	h := newHarness(t)
	r, err := h.requests.Submit(context.Background(), "Al", "a@b.com", "Hi there", "long enough message")
	require.NoError(t, err)

	out, err := h.requests.SetStatus(context.Background(), r.ID, "read")

	require.NoError(t, err)
	got := out.Records[0]
	assert.Equal(t, model.RequestStatusRead, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
	assert.Equal(t, LevelSuccess, out.Notice.Level)
}

func TestDesk_SetStatusInvalid(t *testing.T) {
	h := newHarness(t)
	r := h.submit(t, "Al")

	_, err := h.requests.SetStatus(context.Background(), r.ID, "archived")

	assert.ErrorIs(t, err, errs.ErrInvalidStatus)
	got, _ := h.requests.Find(r.ID)
	assert.Equal(t, model.RequestStatusNew, got.Status)
}

func TestDesk_SetStatusUnknownID(t *testing.T) {
	h := newHarness(t)

	out, err := h.requests.SetStatus(context.Background(), "missing", "read")

	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, "record not found", out.Notice.Text)
}

func TestDesk_FailedPersistenceLeavesMemoryUntouched(t *testing.T) {
	h := newHarness(t)
	r := h.submit(t, "Al")
	before := h.requests.Records()

	h.store.broken = true
	out, err := h.requests.SetStatus(context.Background(), r.ID, "completed")

	require.ErrorIs(t, err, errs.ErrStorage)
	assert.Equal(t, before, h.requests.Records())
	assert.Equal(t, "could not save changes, try again", out.Notice.Text)

	_, err = h.requests.Submit(context.Background(), "Bo", "b@c.com", "Hello again", "another long message")
	require.ErrorIs(t, err, errs.ErrStorage)
	assert.Len(t, h.requests.Records(), 1)

	_, err = h.requests.SaveNotes(context.Background(), r.ID, "lost")
	require.ErrorIs(t, err, errs.ErrStorage)
	got, _ := h.requests.Find(r.ID)
	assert.Empty(t, got.AdminNotes)
}

func TestDesk_OpenMarksNewAsRead(t *testing.T) {
	h := newHarness(t)
	r := h.submit(t, "Al")

	opened, err := h.requests.Open(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRead, opened.Status)

	_, err = h.requests.SetStatus(context.Background(), r.ID, "in_progress")
	require.NoError(t, err)
	again, err := h.requests.Open(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusInProgress, again.Status)
}

func TestDesk_AnyStatusReachable(t *testing.T) {
	h := newHarness(t)
	r := h.submit(t, "Al")
	ctx := context.Background()

	for _, to := range []string{"completed", "new", "rejected", "in_progress", "read", "new"} {
		out, err := h.requests.SetStatus(ctx, r.ID, to)
		require.NoError(t, err, to)
		assert.EqualValues(t, to, out.Records[0].Status)
	}
}

func TestDesk_BulkChangeStatus(t *testing.T) {
	h := newHarness(t)
	a := h.submit(t, "Anna")
	b := h.submit(t, "Bruno")

	out, err := h.requests.BulkSetStatus(context.Background(), []string{a.ID, "ghost", b.ID}, "completed")

	require.NoError(t, err)
	assert.Len(t, out.Records, 2)
	assert.Equal(t, map[string]string{"ghost": "record not found"}, out.Failed)
	assert.Equal(t, "updated 2 of 3", out.Notice.Text)
	assert.Equal(t, 2, h.requests.Summary().ByStatus[model.RequestStatusCompleted])

	out, err = h.requests.BulkSetStatus(context.Background(), []string{"ghost"}, "completed")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, out.Records)
	assert.Equal(t, map[string]string{"ghost": "record not found"}, out.Failed)
	assert.Equal(t, "updated 0 of 1", out.Notice.Text)
	assert.Equal(t, LevelError, out.Notice.Level)

	_, err = h.requests.BulkSetStatus(context.Background(), nil, "completed")
	var ve *errs.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestDesk_BulkChangeStatusNoneUpdated(t *testing.T) {
	h := newHarness(t)
	a := h.submit(t, "Anna")

	h.store.broken = true
	out, err := h.requests.BulkSetStatus(context.Background(), []string{a.ID, "ghost"}, "completed")

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStorage)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, out.Records)
	assert.Equal(t, map[string]string{
		a.ID:    "could not save changes, try again",
		"ghost": "record not found",
	}, out.Failed)
	assert.Equal(t, "updated 0 of 2", out.Notice.Text)

	notice, ok := h.requests.Notice()
	require.True(t, ok)
	assert.Equal(t, out.Notice, notice)
	got, _ := h.requests.Find(a.ID)
	assert.Equal(t, model.RequestStatusNew, got.Status)
}

func TestDesk_OpenKeepsRecordWhenMarkReadFails(t *testing.T) {
	h := newHarness(t)
	r := h.submit(t, "Al")

	h.store.broken = true
	opened, err := h.requests.Open(context.Background(), r.ID)

	require.NoError(t, err)
	assert.Equal(t, r, opened)
	notice, ok := h.requests.Notice()
	require.True(t, ok)
	assert.Equal(t, LevelError, notice.Level)
	assert.Equal(t, "could not save changes, try again", notice.Text)

	h.store.broken = false
	opened, err = h.requests.Open(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRead, opened.Status)
}

func TestDesk_SearchAndSummary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.requests.Submit(ctx, "Mario Rossi", "mario@azienda.it", "Sito aziendale", "Vorrei un sito per la mia azienda")
	require.NoError(t, err)
	g, err := h.requests.Submit(ctx, "Giulia Bianchi", "giulia@startup.it", "E-commerce", "Negozio online di abbigliamento")
	require.NoError(t, err)
	_, err = h.requests.SetStatus(ctx, g.ID, "in_progress")
	require.NoError(t, err)

	all, err := h.requests.Search("all", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hits, err := h.requests.Search("", "AZIENDA")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Mario Rossi", hits[0].Name)

	hits, err = h.requests.Search("in_progress", "azienda")
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = h.requests.Search("bogus", "")
	assert.ErrorIs(t, err, errs.ErrInvalidStatus)

	sum := h.requests.Summary()
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Unread)
	assert.Equal(t, 0, sum.ByStatus[model.RequestStatusRejected])
}

func TestDesk_SaveNotes(t *testing.T) {
	h := newHarness(t)
	r := h.submit(t, "Al")

	got, err := h.requests.SaveNotes(context.Background(), r.ID, "richiamare")

	require.NoError(t, err)
	assert.Equal(t, "richiamare", got.AdminNotes)
	assert.True(t, got.UpdatedAt.After(r.UpdatedAt))
	stored, err := h.store.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "richiamare", stored.AdminNotes)
}

func TestDesk_ReloadPicksUpForeignWrites(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.Insert(context.Background(), model.NewContactRequest("Eva", "e@v.com", "Da altro admin", "inserita da un'altra sessione"))
	require.NoError(t, err)
	assert.Zero(t, len(h.requests.Records()))

	require.NoError(t, h.requests.Load(context.Background()))
	assert.Len(t, h.requests.Records(), 1)
}

func TestDesk_ListStored(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "Anna")
	h.submit(t, "Bruno")

	page, err := h.requests.ListStored(context.Background(), "all", 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Bruno", page.Records[0].Name)

	_, err = h.requests.ListStored(context.Background(), "nope", 0, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidStatus)
}

func TestDesk_NoticeExpires(t *testing.T) {
	h := newHarness(t)
	_, err := h.requests.Submit(context.Background(), "Al", "a@b.com", "Hi there", "long enough message")
	require.NoError(t, err)

	n, ok := h.requests.Notice()
	require.True(t, ok)
	assert.Equal(t, t0.Add(DefaultNoticeTTL), n.ExpiresAt)

	h.clock.Advance(DefaultNoticeTTL)
	_, ok = h.requests.Notice()
	assert.False(t, ok)
}

func TestDesk_PublishesEventsAndIndex(t *testing.T) {
	h := newHarness(t)
	r := h.submit(t, "Al")
	_, err := h.requests.SetStatus(context.Background(), r.ID, "read")
	require.NoError(t, err)

	h.requests.Close()

	assert.ElementsMatch(t, []string{"request.created", "request.status_changed"}, h.events.names())
	h.index.mu.Lock()
	defer h.index.mu.Unlock()
	assert.Len(t, h.index.docs, 2)
}

func TestDesk_CloseRejectsCommands(t *testing.T) {
	h := newHarness(t)
	h.submit(t, "Al")

	h.requests.Close()

	assert.Empty(t, h.requests.Records())
	_, err := h.requests.Submit(context.Background(), "Bo", "b@c.com", "Hello again", "another long message")
	assert.ErrorIs(t, err, ErrDeskClosed)
}
