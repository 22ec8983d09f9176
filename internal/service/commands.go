package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/psds-microservice/crm-service/internal/store"
)

// Reload replaces the collection with the store's current listing.
type Reload[S record.Status, R record.Record[S, R]] struct{}

func (Reload[S, R]) run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error) {
	page, err := d.cfg.Store.List(ctx, store.Query[S]{})
	if err != nil {
		return Outcome[R]{}, err
	}
	d.items.Load(page.Records)
	return Outcome[R]{
		Records: d.items.Records(),
		Notice:  d.post(LevelInfo, fmt.Sprintf("loaded %d records", d.items.Len())),
	}, nil
}

// Create validates and inserts a new record, then puts it at the front.
type Create[S record.Status, R record.Record[S, R]] struct {
	Record R
}

func (c Create[S, R]) run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error) {
	if err := c.Record.Validate(); err != nil {
		return Outcome[R]{}, err
	}
	saved, err := d.cfg.Store.Insert(ctx, c.Record)
	if err != nil {
		return Outcome[R]{}, err
	}
	d.items.Prepend(saved)
	d.publish(d.cfg.Kind+".created", saved, nil)
	return Outcome[R]{Records: []R{saved}, Notice: d.post(LevelSuccess, "created")}, nil
}

// ChangeStatus moves one record to Status.
type ChangeStatus[S record.Status, R record.Record[S, R]] struct {
	ID     string
	Status S
}

func (c ChangeStatus[S, R]) run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error) {
	saved, err := d.changeStatus(ctx, c.ID, c.Status)
	if err != nil {
		return Outcome[R]{}, err
	}
	return Outcome[R]{
		Records: []R{saved},
		Notice:  d.post(LevelSuccess, "status changed to "+string(c.Status)),
	}, nil
}

// BulkChangeStatus applies one status to many records. Each id succeeds or
// fails on its own; the command fails only when none succeeded, and the
// outcome still carries the per-id failures then.
type BulkChangeStatus[S record.Status, R record.Record[S, R]] struct {
	IDs    []string
	Status S
}

func (c BulkChangeStatus[S, R]) run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error) {
	if !c.Status.Valid() {
		return Outcome[R]{}, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, string(c.Status))
	}
	if len(c.IDs) == 0 {
		return Outcome[R]{}, errs.Invalid("ids", "at least one id is required")
	}
	out := Outcome[R]{Records: []R{}, Failed: map[string]string{}}
	var failures []error
	for _, id := range c.IDs {
		saved, err := d.changeStatus(ctx, id, c.Status)
		if err != nil {
			out.Failed[id] = noticeText(err)
			failures = append(failures, fmt.Errorf("%s: %w", id, err))
			continue
		}
		out.Records = append(out.Records, saved)
	}
	level := LevelSuccess
	if len(failures) > 0 {
		level = LevelError
	}
	out.Notice = d.post(level, fmt.Sprintf("updated %d of %d", len(out.Records), len(c.IDs)))
	if len(out.Records) == 0 {
		return out, errors.Join(failures...)
	}
	return out, nil
}

// OpenDetails returns one record, applying the kind's open rule first
// (for contact requests: new becomes read). A failed open-rule write
// leaves the record as it was and posts an error notice.
type OpenDetails[S record.Status, R record.Record[S, R]] struct {
	ID string
}

func (c OpenDetails[S, R]) run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error) {
	cur, ok := d.items.Find(c.ID)
	if !ok {
		return Outcome[R]{}, fmt.Errorf("%w: %s", errs.ErrNotFound, c.ID)
	}
	if d.cfg.OnOpen != nil {
		if target, change := d.cfg.OnOpen(cur); change {
			saved, err := d.changeStatus(ctx, c.ID, target)
			if err != nil {
				d.logFailure(ctx, err)
				return Outcome[R]{Records: []R{cur}, Notice: d.post(LevelError, noticeText(err))}, nil
			}
			cur = saved
		}
	}
	return Outcome[R]{Records: []R{cur}}, nil
}

// Advance moves a record one step along the kind's fixed cycle.
type Advance[S record.Status, R record.Record[S, R]] struct {
	ID string
}

func (c Advance[S, R]) run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error) {
	if d.cfg.Cycle == nil {
		return Outcome[R]{}, fmt.Errorf("advance %s: %w", d.cfg.Kind, errors.ErrUnsupported)
	}
	cur, ok := d.items.Find(c.ID)
	if !ok {
		return Outcome[R]{}, fmt.Errorf("%w: %s", errs.ErrNotFound, c.ID)
	}
	next := d.cfg.Cycle(cur.RecordStatus())
	saved, err := d.changeStatus(ctx, c.ID, next)
	if err != nil {
		return Outcome[R]{}, err
	}
	return Outcome[R]{
		Records: []R{saved},
		Notice:  d.post(LevelSuccess, "status changed to "+string(next)),
	}, nil
}

// Edit changes non-lifecycle fields of one record through Change, which
// receives the current record and the updatedAt to stamp.
type Edit[S record.Status, R record.Record[S, R]] struct {
	ID     string
	Change func(r R, at time.Time) R
	// Label names the edit in the notice and the event.
	Label string
}

func (c Edit[S, R]) run(ctx context.Context, d *Desk[S, R]) (Outcome[R], error) {
	cur, ok := d.items.Find(c.ID)
	if !ok {
		return Outcome[R]{}, fmt.Errorf("%w: %s", errs.ErrNotFound, c.ID)
	}
	next := c.Change(cur, record.Stamp(cur.Updated(), d.deps.Clock.Now()))
	saved, err := d.cfg.Store.Save(ctx, next)
	if err != nil {
		return Outcome[R]{}, err
	}
	d.items.Replace(saved)
	d.publish(d.cfg.Kind+".updated", saved, map[string]any{"change": c.Label})
	return Outcome[R]{Records: []R{saved}, Notice: d.post(LevelSuccess, c.Label+" saved")}, nil
}
