package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/psds-microservice/crm-service/internal/attachments"
	"github.com/psds-microservice/crm-service/internal/errs"
	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/psds-microservice/crm-service/internal/store"
)

type (
	TicketDesk    = Desk[model.TicketStatus, model.Ticket]
	TicketOutcome = Outcome[model.Ticket]
)

// TicketServicer is the read side used by the gRPC and CLI layers.
type TicketServicer interface {
	Find(id string) (model.Ticket, bool)
	Records() []model.Ticket
	Summary() model.TicketStats
}

// Tickets manages the service board and its client directory.
type Tickets struct {
	*TicketDesk
	clients store.Clients
	files   attachments.Uploader
}

var _ TicketServicer = (*Tickets)(nil)

// NewTickets wires a ticket desk. files may be nil when no object storage
// is configured; Attach then fails with attachments.ErrDisabled.
func NewTickets(st store.Store[model.TicketStatus, model.Ticket], clients store.Clients, files attachments.Uploader, deps Deps) *Tickets {
	return &Tickets{
		TicketDesk: NewDesk(DeskConfig[model.TicketStatus, model.Ticket]{
			Kind:     KindTicket,
			Store:    st,
			Statuses: model.TicketStatuses,
			Cycle:    model.TicketStatus.Next,
		}, deps),
		clients: clients,
		files:   files,
	}
}

// Create stores a new ticket. A non-empty ClientID must name a known
// client.
func (s *Tickets) Create(ctx context.Context, t model.Ticket) (model.Ticket, error) {
	if t.ClientID != "" {
		if _, err := s.clients.Get(ctx, t.ClientID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return model.Ticket{}, errs.Invalid("client_id", "unknown client %q", t.ClientID)
			}
			return model.Ticket{}, err
		}
	}
	out, err := s.Dispatch(ctx, Create[model.TicketStatus, model.Ticket]{Record: t})
	if err != nil {
		return model.Ticket{}, err
	}
	return out.Records[0], nil
}

func (s *Tickets) SetStatus(ctx context.Context, id, status string) (TicketOutcome, error) {
	st, err := model.ParseTicketStatus(status)
	if err != nil {
		return TicketOutcome{}, err
	}
	return s.Dispatch(ctx, ChangeStatus[model.TicketStatus, model.Ticket]{ID: id, Status: st})
}

// Advance moves a ticket to the next status of the open, in_progress,
// completed cycle.
func (s *Tickets) Advance(ctx context.Context, id string) (TicketOutcome, error) {
	return s.Dispatch(ctx, Advance[model.TicketStatus, model.Ticket]{ID: id})
}

func (s *Tickets) Search(status, text string) ([]model.Ticket, error) {
	f := record.Filter[model.TicketStatus]{Text: text}
	if status != "" && status != record.AllStatuses {
		st, err := model.ParseTicketStatus(status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	return s.View(f), nil
}

func (s *Tickets) Summary() model.TicketStats {
	return model.AggregateTickets(s.Records())
}

func (s *Tickets) Overview(ctx context.Context) (model.Overview, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return model.Overview{}, err
	}
	return model.NewOverview(clients, s.Records()), nil
}

func (s *Tickets) Clients(ctx context.Context) ([]model.ClientSummary, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, err
	}
	tickets := s.Records()
	out := make([]model.ClientSummary, 0, len(clients))
	for _, c := range clients {
		out = append(out, model.Summarize(c, tickets))
	}
	return out, nil
}

func (s *Tickets) Client(ctx context.Context, id string) (model.ClientSummary, error) {
	c, err := s.clients.Get(ctx, id)
	if err != nil {
		return model.ClientSummary{}, err
	}
	return model.Summarize(c, s.Records()), nil
}

func (s *Tickets) AddClient(ctx context.Context, c model.Client) (model.Client, error) {
	if err := c.Validate(); err != nil {
		return model.Client{}, err
	}
	return s.clients.Insert(ctx, c)
}

// Attach uploads a file and records its name on the ticket. The ticket is
// updated only after the upload succeeded.
func (s *Tickets) Attach(ctx context.Context, id, name string, body io.Reader, size int64, contentType string) (model.Ticket, error) {
	if s.files == nil {
		return model.Ticket{}, attachments.ErrDisabled
	}
	if _, ok := s.Find(id); !ok {
		return model.Ticket{}, fmt.Errorf("%w: %s", errs.ErrNotFound, id)
	}
	key := attachments.Key(id, name)
	if err := s.files.Upload(ctx, key, body, size, contentType); err != nil {
		return model.Ticket{}, errs.Storage("upload attachment", err)
	}
	out, err := s.Dispatch(ctx, Edit[model.TicketStatus, model.Ticket]{
		ID:    id,
		Label: "attachment",
		Change: func(t model.Ticket, at time.Time) model.Ticket {
			return t.WithFile(name, at)
		},
	})
	if err != nil {
		return model.Ticket{}, err
	}
	return out.Records[0], nil
}
