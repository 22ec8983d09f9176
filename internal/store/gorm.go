package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/psds-microservice/crm-service/internal/clock"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/record"
	"gorm.io/gorm"
)

// GormStore keeps one record kind in its own table.
type GormStore[S record.Status, R record.Record[S, R]] struct {
	db    *gorm.DB
	clock clock.Clock
	newID func() string
}

func NewGormStore[S record.Status, R record.Record[S, R]](db *gorm.DB, clk clock.Clock) *GormStore[S, R] {
	return &GormStore[S, R]{db: db, clock: clk, newID: newID}
}

func (s *GormStore[S, R]) List(ctx context.Context, q Query[S]) (Page[R], error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		if q.Status != "" {
			return tx.Where("status = ?", q.Status)
		}
		return tx
	}

	var page Page[R]
	if err := s.db.WithContext(ctx).Model(new(R)).Scopes(filter).Count(&page.Total).Error; err != nil {
		return Page[R]{}, errs.Storage("count", err)
	}

	tx := s.db.WithContext(ctx).Model(new(R)).Scopes(filter).Order("created_at DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	page.Records = []R{}
	if err := tx.Find(&page.Records).Error; err != nil {
		return Page[R]{}, errs.Storage("list", err)
	}
	return page, nil
}

func (s *GormStore[S, R]) Get(ctx context.Context, id string) (R, error) {
	var r R
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r, errs.ErrNotFound
		}
		return r, errs.Storage("get", err)
	}
	return r, nil
}

func (s *GormStore[S, R]) Insert(ctx context.Context, r R) (R, error) {
	r = r.Assign(s.newID(), s.clock.Now())
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		var zero R
		return zero, errs.Storage("insert", err)
	}
	return r, nil
}

func (s *GormStore[S, R]) UpdateStatus(ctx context.Context, id string, status S) (R, error) {
	if !status.Valid() {
		var zero R
		return zero, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, string(status))
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return cur, err
	}
	next, err := record.Transition(cur, status, s.clock.Now())
	if err != nil {
		return cur, err
	}
	res := s.db.WithContext(ctx).Model(new(R)).Where("id = ?", id).Updates(map[string]any{
		"status":     string(next.RecordStatus()),
		"updated_at": next.Updated(),
	})
	if res.Error != nil {
		return cur, errs.Storage("update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return cur, errs.ErrNotFound
	}
	return next, nil
}

func (s *GormStore[S, R]) Save(ctx context.Context, r R) (R, error) {
	res := s.db.WithContext(ctx).Model(&r).Select("*").Omit("id", "created_at").Updates(&r)
	if res.Error != nil {
		var zero R
		return zero, errs.Storage("save", res.Error)
	}
	if res.RowsAffected == 0 {
		var zero R
		return zero, errs.ErrNotFound
	}
	return r, nil
}
