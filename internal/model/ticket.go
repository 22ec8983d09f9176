package model

import (
	"strings"
	"time"

	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/record"
	"gorm.io/datatypes"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusCompleted  TicketStatus = "completed"
)

// TicketStatuses is the fixed advance order used by Next.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusCompleted,
}

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusCompleted:
		return true
	}
	return false
}

// Next returns the status that follows s in the one-click advance cycle
// open -> in_progress -> completed -> open. Unknown values restart at open.
func (s TicketStatus) Next() TicketStatus {
	for i, st := range TicketStatuses {
		if st == s {
			return TicketStatuses[(i+1)%len(TicketStatuses)]
		}
	}
	return TicketStatusOpen
}

// UnmarshalText maps the legacy "in-progress" spelling. Other values are
// kept verbatim so that Next can still restart them at open.
func (s *TicketStatus) UnmarshalText(b []byte) error {
	if string(b) == "in-progress" {
		*s = TicketStatusInProgress
		return nil
	}
	*s = TicketStatus(b)
	return nil
}

// ParseTicketStatus accepts the enumeration plus the hyphenated
// "in-progress" spelling found in older local snapshots.
func ParseTicketStatus(s string) (TicketStatus, error) {
	if s == "in-progress" {
		return TicketStatusInProgress, nil
	}
	return record.ParseStatus[TicketStatus](s)
}

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityUrgent
}

type ProjectType string

const (
	ProjectWebsite      ProjectType = "website"
	ProjectMobileApp    ProjectType = "mobile-app"
	ProjectAIAutomation ProjectType = "ai-automation"
	ProjectChatbot      ProjectType = "chatbot"
	ProjectEcommerce    ProjectType = "ecommerce"
	ProjectOther        ProjectType = "other"
)

func (t ProjectType) Valid() bool {
	switch t {
	case ProjectWebsite, ProjectMobileApp, ProjectAIAutomation, ProjectChatbot, ProjectEcommerce, ProjectOther:
		return true
	}
	return false
}

// Ticket is a project request on the service board.
type Ticket struct {
	ID           string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ClientID     string       `gorm:"type:varchar(36);index" json:"client_id,omitempty"`
	Title        string       `gorm:"type:varchar(255);not null" json:"title"`
	Type         ProjectType  `gorm:"type:varchar(32);not null" json:"type"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	Budget       string       `gorm:"type:varchar(32)" json:"budget,omitempty"`
	Priority     Priority     `gorm:"type:varchar(16);index;not null" json:"priority"`
	DeliveryDate string       `gorm:"type:varchar(10)" json:"delivery_date,omitempty"`
	Status       TicketStatus `gorm:"type:varchar(32);index;not null" json:"status"`

	Files datatypes.JSONSlice[string] `json:"files"`

	CreatedAt time.Time `gorm:"index;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

var _ record.Record[TicketStatus, Ticket] = Ticket{}

func (t Ticket) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errs.Invalid("title", "is required")
	}
	if !t.Type.Valid() {
		return errs.Invalid("type", "must be one of website, mobile-app, ai-automation, chatbot, ecommerce, other")
	}
	if t.Priority != "" && !t.Priority.Valid() {
		return errs.Invalid("priority", "must be normal or urgent")
	}
	if t.DeliveryDate != "" {
		if _, err := time.Parse(time.DateOnly, t.DeliveryDate); err != nil {
			return errs.Invalid("delivery_date", "must be a YYYY-MM-DD date")
		}
	}
	return nil
}

func (t Ticket) RecordID() string           { return t.ID }
func (t Ticket) RecordStatus() TicketStatus { return t.Status }
func (t Ticket) Created() time.Time         { return t.CreatedAt }
func (t Ticket) Updated() time.Time         { return t.UpdatedAt }

func (t Ticket) WithStatus(status TicketStatus, at time.Time) Ticket {
	t.Status = status
	t.UpdatedAt = at
	return t
}

func (t Ticket) Assign(id string, at time.Time) Ticket {
	t.ID = id
	t.CreatedAt = at
	t.UpdatedAt = at
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	if t.Files == nil {
		t.Files = datatypes.JSONSlice[string]{}
	}
	return t
}

// WithFile returns a copy with name appended to the attachment list.
func (t Ticket) WithFile(name string, at time.Time) Ticket {
	files := make(datatypes.JSONSlice[string], 0, len(t.Files)+1)
	files = append(files, t.Files...)
	t.Files = append(files, name)
	t.UpdatedAt = at
	return t
}

func (t Ticket) SearchText() string {
	parts := []string{t.ID, t.Title, string(t.Type), t.Description, t.Budget, string(t.Priority), string(t.Status)}
	parts = append(parts, t.Files...)
	return strings.Join(parts, " ")
}

func (t Ticket) Urgent() bool { return t.Priority == PriorityUrgent }
