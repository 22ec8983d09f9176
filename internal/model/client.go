package model

import (
	"strings"
	"time"

	"github.com/psds-microservice/crm-service/internal/errs"
)

// Client owns zero or more tickets. Deleting a client is not supported.
type Client struct {
	ID       string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name     string    `gorm:"type:varchar(255);not null" json:"name"`
	Email    string    `gorm:"type:varchar(255);index" json:"email"`
	Company  string    `gorm:"type:varchar(255)" json:"company,omitempty"`
	Phone    string    `gorm:"type:varchar(32)" json:"phone,omitempty"`
	JoinedAt time.Time `gorm:"autoCreateTime:false" json:"joined_at"`
}

func NewClient(name, email, company, phone string) Client {
	return Client{
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Company: strings.TrimSpace(company),
		Phone:   strings.TrimSpace(phone),
	}
}

func (c Client) Validate() error {
	if c.Name == "" {
		return errs.Invalid("name", "is required")
	}
	if c.Email != "" && !emailPattern.MatchString(c.Email) {
		return errs.Invalid("email", "is not a valid address")
	}
	return nil
}

// ClientSummary is the per-client ticket card.
type ClientSummary struct {
	Client    Client `json:"client"`
	Open      int    `json:"open"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Summarize counts the tickets belonging to c.
func Summarize(c Client, tickets []Ticket) ClientSummary {
	s := ClientSummary{Client: c}
	for _, t := range tickets {
		if t.ClientID != c.ID {
			continue
		}
		s.Total++
		switch t.Status {
		case TicketStatusOpen:
			s.Open++
		case TicketStatusCompleted:
			s.Completed++
		}
	}
	return s
}
