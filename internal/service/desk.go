package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/kafka"
	"github.com/psds-microservice/crm-service/internal/logging"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/psds-microservice/crm-service/internal/searchindex"
	"github.com/psds-microservice/crm-service/internal/store"
)

var ErrDeskClosed = errors.New("desk closed")

// Record kinds, used as event prefixes and search index names.
const (
	KindRequest = "request"
	KindTicket  = "ticket"
)

// Indexer receives every confirmed record for full-text search.
type Indexer interface {
	Index(ctx context.Context, doc searchindex.Document) error
}

// Deps are the collaborators shared by every desk.
type Deps struct {
	Events    kafka.EventProducer
	Index     Indexer
	Clock     clock.Clock
	Logger    logging.Logger
	NoticeTTL time.Duration
}

// DeskConfig describes one record kind.
type DeskConfig[S record.Status, R record.Record[S, R]] struct {
	// Kind prefixes event names and selects the search index.
	Kind     string
	Store    store.Store[S, R]
	Statuses []S
	// Cycle, when set, enables Advance.
	Cycle func(S) S
	// OnOpen, when set, is consulted by OpenDetails and may ask for a
	// status change.
	OnOpen func(R) (S, bool)
}

// Outcome is what a command produced.
type Outcome[R any] struct {
	// Records holds the confirmed records the command touched.
	Records []R
	// Failed maps ids to error text for bulk commands.
	Failed map[string]string
	Notice Notice
}

// Desk is the context object of one admin session over one record kind: it
// owns the in-memory Collection and applies commands to it. Mutations are
// committed to memory only after the store confirms them.
type Desk[S record.Status, R record.Record[S, R]] struct {
	cfg  DeskConfig[S, R]
	deps Deps
	log  logging.Logger

	mu     sync.Mutex
	items  *record.Collection[S, R]
	notice Notice
	closed bool

	pending sync.WaitGroup
}

func NewDesk[S record.Status, R record.Record[S, R]](cfg DeskConfig[S, R], deps Deps) *Desk[S, R] {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.NoticeTTL <= 0 {
		deps.NoticeTTL = DefaultNoticeTTL
	}
	return &Desk[S, R]{
		cfg:   cfg,
		deps:  deps,
		log:   deps.Logger.With("desk", cfg.Kind),
		items: record.NewCollection[S, R](),
	}
}

// Command is a typed operator action consumed by Dispatch.
type Command[S record.Status, R record.Record[S, R]] interface {
	run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error)
}

// Dispatch applies cmd. Every call yields a Notice, on failure too, unless
// the command posted its own; the error is returned for transports that
// need to map it.
func (d *Desk[S, R]) Dispatch(ctx context.Context, cmd Command[S, R]) (Outcome[R], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		out := Outcome[R]{Notice: d.post(LevelError, noticeText(ErrDeskClosed))}
		return out, ErrDeskClosed
	}
	out, err := cmd.run(ctx, d)
	if err != nil {
		d.logFailure(ctx, err)
		if out.Notice.Text == "" {
			out.Notice = d.post(LevelError, noticeText(err))
		}
		return out, err
	}
	return out, nil
}

func (d *Desk[S, R]) logFailure(ctx context.Context, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, errs.ErrInvalidStatus), errors.Is(err, errs.ErrNotFound):
		d.log.Info(ctx, "command rejected", "error", err)
	default:
		d.log.Error(ctx, "command failed", "error", err)
	}
}

func (d *Desk[S, R]) post(level Level, text string) Notice {
	d.notice = Notice{Level: level, Text: text, ExpiresAt: d.deps.Clock.Now().Add(d.deps.NoticeTTL)}
	return d.notice
}

// Notice returns the latest notice while it has not expired.
func (d *Desk[S, R]) Notice() (Notice, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.notice.Text == "" || d.notice.Expired(d.deps.Clock.Now()) {
		return Notice{}, false
	}
	return d.notice, true
}

// Load fills the collection from the store.
func (d *Desk[S, R]) Load(ctx context.Context) error {
	_, err := d.Dispatch(ctx, Reload[S, R]{})
	return err
}

func (d *Desk[S, R]) Find(id string) (R, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.items.Find(id)
}

func (d *Desk[S, R]) Records() []R {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.items.Records()
}

func (d *Desk[S, R]) View(f record.Filter[S]) []R {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.items.View(f)
}

func (d *Desk[S, R]) Stats() record.Stats[S] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.items.Stats(d.cfg.Statuses)
}

// List passes straight through to the store, bypassing the collection.
func (d *Desk[S, R]) List(ctx context.Context, q store.Query[S]) (store.Page[R], error) {
	return d.cfg.Store.List(ctx, q)
}

// Close drops the collection and waits for in-flight events. Later
// commands fail with ErrDeskClosed.
func (d *Desk[S, R]) Close() {
	d.mu.Lock()
	d.closed = true
	d.items = record.NewCollection[S, R]()
	d.mu.Unlock()
	d.pending.Wait()
}

// changeStatus is the confirmed-only status path shared by several
// commands. The caller holds d.mu.
func (d *Desk[S, R]) changeStatus(ctx context.Context, id string, status S) (R, error) {
	cur, ok := d.items.Find(id)
	if !ok {
		return cur, fmt.Errorf("%w: %s", errs.ErrNotFound, id)
	}
	if _, err := record.Transition(cur, status, d.deps.Clock.Now()); err != nil {
		return cur, err
	}
	saved, err := d.cfg.Store.UpdateStatus(ctx, id, status)
	if err != nil {
		return cur, err
	}
	d.items.Replace(saved)
	d.publish(d.cfg.Kind+".status_changed", saved, map[string]any{"previous_status": string(cur.RecordStatus())})
	return saved, nil
}

// publish emits the event and the search document off the request path.
func (d *Desk[S, R]) publish(event string, r R, extra map[string]any) {
	if d.deps.Events == nil && d.deps.Index == nil {
		return
	}
	payload := map[string]any{
		"kind":       d.cfg.Kind,
		"id":         r.RecordID(),
		"status":     string(r.RecordStatus()),
		"updated_at": r.Updated(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	doc := SearchDocument[S](d.cfg.Kind, r)
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if d.deps.Events != nil {
			d.deps.Events.Produce(ctx, event, payload)
		}
		if d.deps.Index != nil {
			if err := d.deps.Index.Index(ctx, doc); err != nil {
				d.log.Warn(ctx, "search index failed", "id", doc.ID, "error", err)
			}
		}
	}()
}

// SearchDocument is the search-index view of r.
func SearchDocument[S record.Status, R record.Record[S, R]](kind string, r R) searchindex.Document {
	return searchindex.Document{
		Kind:      kind,
		ID:        r.RecordID(),
		Status:    string(r.RecordStatus()),
		Text:      r.SearchText(),
		CreatedAt: r.Created(),
		UpdatedAt: r.Updated(),
	}
}
