package service

import (
	"errors"
	"time"

	"github.com/psds-microservice/crm-service/internal/errs"
)

// DefaultNoticeTTL is how long a notice stays visible.
const DefaultNoticeTTL = 4 * time.Second

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is the transient, user-facing result of a command.
type Notice struct {
	Level     Level     `json:"level"`
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// noticeText turns err into a message safe to show to the operator.
// Storage details stay in the logs.
func noticeText(err error) string {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, errs.ErrNotFound):
		return "record not found"
	case errors.Is(err, errs.ErrInvalidStatus):
		return "invalid status"
	case errors.Is(err, errs.ErrStorage):
		return "could not save changes, try again"
	case errors.Is(err, ErrDeskClosed):
		return "session closed"
	case errors.Is(err, errors.ErrUnsupported):
		return "action not available"
	default:
		return "unexpected error"
	}
}
