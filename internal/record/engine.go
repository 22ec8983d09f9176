package record

import (
	"fmt"
	"time"

	"github.com/psds-microservice/crm-service/internal/errs"
)

// Transition moves r to target. Any valid status is reachable from any
// other one; there is no forward-only rule. Only status and updatedAt
// change.
func Transition[S Status, R Record[S, R]](r R, target S, now time.Time) (R, error) {
	if !target.Valid() {
		return r, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, string(target))
	}
	return r.WithStatus(target, Stamp(r.Updated(), now)), nil
}

// Stamp returns the updatedAt for a mutation happening at now. It always
// lies strictly after prev so that updatedAt advances on every mutation
// even when two mutations share a clock tick.
func Stamp(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

// ParseStatus converts s into S, failing with errs.ErrInvalidStatus for
// values outside the enumeration.
func ParseStatus[S Status](s string) (S, error) {
	st := S(s)
	if !st.Valid() {
		return st, fmt.Errorf("%w: %q", errs.ErrInvalidStatus, s)
	}
	return st, nil
}
