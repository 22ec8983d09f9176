package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/record"
)

type RequestStatus string

const (
	RequestStatusNew        RequestStatus = "new"
	RequestStatusRead       RequestStatus = "read"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusRejected   RequestStatus = "rejected"
)

// RequestStatuses lists every request status in display order.
var RequestStatuses = []RequestStatus{
	RequestStatusNew,
	RequestStatusRead,
	RequestStatusInProgress,
	RequestStatusCompleted,
	RequestStatusRejected,
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusNew, RequestStatusRead, RequestStatusInProgress, RequestStatusCompleted, RequestStatusRejected:
		return true
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactRequest is a submission of the public contact form.
type ContactRequest struct {
	ID      string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name    string        `gorm:"type:varchar(255);not null" json:"name"`
	Email   string        `gorm:"type:varchar(255);index;not null" json:"email"`
	Subject string        `gorm:"type:varchar(255);not null" json:"subject"`
	Message string        `gorm:"type:text;not null" json:"message"`
	Status  RequestStatus `gorm:"type:varchar(32);index;not null" json:"status"`

	AdminNotes     string     `gorm:"type:text" json:"admin_notes,omitempty"`
	NotesUpdatedAt *time.Time `json:"notes_updated_at,omitempty"`

	CreatedAt time.Time `gorm:"index;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (ContactRequest) TableName() string { return "contact_requests" }

var _ record.Record[RequestStatus, ContactRequest] = ContactRequest{}

// NewContactRequest builds a request from raw form input: surrounding
// whitespace is dropped and the email is lowercased.
func NewContactRequest(name, email, subject, message string) ContactRequest {
	return ContactRequest{
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Subject: strings.TrimSpace(subject),
		Message: strings.TrimSpace(message),
	}
}

// Validate checks the submission fields in form order and reports the first
// offending field.
func (r ContactRequest) Validate() error {
	if r.Name == "" {
		return errs.Invalid("name", "is required")
	}
	if r.Email == "" {
		return errs.Invalid("email", "is required")
	}
	if r.Subject == "" {
		return errs.Invalid("subject", "is required")
	}
	if r.Message == "" {
		return errs.Invalid("message", "is required")
	}
	if !emailPattern.MatchString(r.Email) {
		return errs.Invalid("email", "is not a valid address")
	}
	if utf8.RuneCountInString(r.Name) < 2 {
		return errs.Invalid("name", "must be at least %d characters", 2)
	}
	if utf8.RuneCountInString(r.Subject) < 5 {
		return errs.Invalid("subject", "must be at least %d characters", 5)
	}
	if utf8.RuneCountInString(r.Message) < 10 {
		return errs.Invalid("message", "must be at least %d characters", 10)
	}
	return nil
}

func (r ContactRequest) RecordID() string            { return r.ID }
func (r ContactRequest) RecordStatus() RequestStatus { return r.Status }
func (r ContactRequest) Created() time.Time          { return r.CreatedAt }
func (r ContactRequest) Updated() time.Time          { return r.UpdatedAt }

func (r ContactRequest) WithStatus(status RequestStatus, at time.Time) ContactRequest {
	r.Status = status
	r.UpdatedAt = at
	return r
}

func (r ContactRequest) Assign(id string, at time.Time) ContactRequest {
	r.ID = id
	r.CreatedAt = at
	r.UpdatedAt = at
	if r.Status == "" {
		r.Status = RequestStatusNew
	}
	return r
}

// WithNotes returns a copy carrying the admin notes. Notes are not part of
// the lifecycle; updatedAt advances like for any other mutation.
func (r ContactRequest) WithNotes(notes string, at time.Time) ContactRequest {
	r.AdminNotes = notes
	r.NotesUpdatedAt = &at
	r.UpdatedAt = at
	return r
}

func (r ContactRequest) SearchText() string {
	return strings.Join([]string{r.Name, r.Email, r.Subject, r.Message, string(r.Status)}, " ")
}

// Unread reports whether the request has not been opened yet.
func (r ContactRequest) Unread() bool { return r.Status == RequestStatusNew }
