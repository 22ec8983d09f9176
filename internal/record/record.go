// Package record holds the lifecycle core shared by contact requests and
// tickets: the status engine, the in-memory collection, the filter view and
// the stats aggregator. Nothing here performs I/O.
package record

import "time"

// Status is the closed set of lifecycle states of one record kind.
type Status interface {
	~string
	Valid() bool
}

// Record is implemented by value types. Mutators return a modified copy so
// that a record held by a Collection never changes until the store has
// confirmed the new version.
type Record[S Status, R any] interface {
	RecordID() string
	RecordStatus() S
	Created() time.Time
	Updated() time.Time

	// WithStatus returns a copy with status and updatedAt replaced.
	WithStatus(status S, at time.Time) R
	// Assign returns a copy carrying a store-assigned id, creation time and
	// the kind's default status when none is set.
	Assign(id string, at time.Time) R

	// SearchText is the flattened display text matched by free-text search.
	SearchText() string
	Validate() error
}
