package record

import (
	"strings"
	"time"

	"github.com/psds-microservice/crm-service/internal/errs"
)

type phase string

const (
	phaseDraft  phase = "draft"
	phaseReview phase = "review"
	phaseDone   phase = "done"
)

var phases = []phase{phaseDraft, phaseReview, phaseDone}

func (p phase) Valid() bool {
	switch p {
	case phaseDraft, phaseReview, phaseDone:
		return true
	}
	return false
}

type item struct {
	ID        string
	Title     string
	Status    phase
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i item) RecordID() string { return i.ID }
func (i item) RecordStatus() phase { return i.Status }
func (i item) Created() time.Time { return i.CreatedAt }
func (i item) Updated() time.Time { return i.UpdatedAt }
func (i item) SearchText() string { return strings.Join([]string{i.ID, i.Title}, " ") }

func (i item) WithStatus(s phase, at time.Time) item {
	i.Status = s
	i.UpdatedAt = at
	return i
}

func (i item) Assign(id string, at time.Time) item {
	i.ID = id
	i.CreatedAt = at
	i.UpdatedAt = at
	if i.Status == "" {
		i.Status = phaseDraft
	}
	return i
}

func (i item) Validate() error {
	if i.Title == "" {
		return errs.Invalid("title", "is required")
	}
	return nil
}

var _ Record[phase, item] = item{}

var t0 = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

func newItem(id, title string, s phase, created time.Time) item {
	return item{ID: id, Title: title, Status: s, CreatedAt: created, UpdatedAt: created}
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
