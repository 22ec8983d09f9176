// Package store persists records. The hosted backend is PostgreSQL through
// gorm; without one, each collection is kept as a single JSON snapshot in a
// key/value backend (SQLite file or Redis).
package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psds-microservice/crm-service/internal/record"
)

// Query selects a page of records. A zero Status lists every status; a
// zero Limit means no limit.
type Query[S record.Status] struct {
	Status S
	Limit  int
	Offset int
}

// Page is one slice of a listing plus the total number of matches.
type Page[R any] struct {
	Records []R   `json:"records"`
	Total   int64 `json:"total"`
}

// Store is the adapter between a Collection and its backend. List returns
// records newest first. Insert assigns id, timestamps and the default
// status. UpdateStatus stamps updatedAt.
type Store[S record.Status, R record.Record[S, R]] interface {
	List(ctx context.Context, q Query[S]) (Page[R], error)
	Get(ctx context.Context, id string) (R, error)
	Insert(ctx context.Context, r R) (R, error)
	UpdateStatus(ctx context.Context, id string, status S) (R, error)
	// Save overwrites the stored version of an existing record.
	Save(ctx context.Context, r R) (R, error)
}

func newID() string { return uuid.NewString() }

func paginate[R any](records []R, limit, offset int) []R {
	if offset >= len(records) {
		return []R{}
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}
