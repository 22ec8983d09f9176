package service

import (
	"context"
	"time"

	"github.com/psds-microservice/crm-service/internal/model"
	"github.com/psds-microservice/crm-service/internal/record"
	"github.com/psds-microservice/crm-service/internal/store"
)

type (
	RequestDesk    = Desk[model.RequestStatus, model.ContactRequest]
	RequestOutcome = Outcome[model.ContactRequest]
)

// RequestStats is the admin table header.
type RequestStats struct {
	record.Stats[model.RequestStatus]
	Unread int `json:"unread"`
}

// Requests manages contact-form submissions.
type Requests struct {
	*RequestDesk
}

func NewRequests(st store.Store[model.RequestStatus, model.ContactRequest], deps Deps) *Requests {
	return &Requests{RequestDesk: NewDesk(DeskConfig[model.RequestStatus, model.ContactRequest]{
		Kind:     KindRequest,
		Store:    st,
		Statuses: model.RequestStatuses,
		OnOpen: func(r model.ContactRequest) (model.RequestStatus, bool) {
			return model.RequestStatusRead, r.Status == model.RequestStatusNew
		},
	}, deps)}
}

// Submit validates and stores a public contact-form submission.
func (s *Requests) Submit(ctx context.Context, name, email, subject, message string) (model.ContactRequest, error) {
	out, err := s.Dispatch(ctx, Create[model.RequestStatus, model.ContactRequest]{
		Record: model.NewContactRequest(name, email, subject, message),
	})
	if err != nil {
		return model.ContactRequest{}, err
	}
	return out.Records[0], nil
}

func (s *Requests) SetStatus(ctx context.Context, id, status string) (RequestOutcome, error) {
	st, err := record.ParseStatus[model.RequestStatus](status)
	if err != nil {
		return RequestOutcome{}, err
	}
	return s.Dispatch(ctx, ChangeStatus[model.RequestStatus, model.ContactRequest]{ID: id, Status: st})
}

func (s *Requests) BulkSetStatus(ctx context.Context, ids []string, status string) (RequestOutcome, error) {
	st, err := record.ParseStatus[model.RequestStatus](status)
	if err != nil {
		return RequestOutcome{}, err
	}
	return s.Dispatch(ctx, BulkChangeStatus[model.RequestStatus, model.ContactRequest]{IDs: ids, Status: st})
}

// Open returns the request for the detail view, marking it read if new.
func (s *Requests) Open(ctx context.Context, id string) (model.ContactRequest, error) {
	out, err := s.Dispatch(ctx, OpenDetails[model.RequestStatus, model.ContactRequest]{ID: id})
	if err != nil {
		return model.ContactRequest{}, err
	}
	return out.Records[0], nil
}

func (s *Requests) SaveNotes(ctx context.Context, id, notes string) (model.ContactRequest, error) {
	out, err := s.Dispatch(ctx, Edit[model.RequestStatus, model.ContactRequest]{
		ID:    id,
		Label: "notes",
		Change: func(r model.ContactRequest, at time.Time) model.ContactRequest {
			return r.WithNotes(notes, at)
		},
	})
	if err != nil {
		return model.ContactRequest{}, err
	}
	return out.Records[0], nil
}

// Search filters the session collection. status may be empty or "all".
func (s *Requests) Search(status, text string) ([]model.ContactRequest, error) {
	f, err := requestFilter(status, text)
	if err != nil {
		return nil, err
	}
	return s.View(f), nil
}

// ListStored lists straight from the store, newest first.
func (s *Requests) ListStored(ctx context.Context, status string, limit, offset int) (store.Page[model.ContactRequest], error) {
	f, err := requestFilter(status, "")
	if err != nil {
		return store.Page[model.ContactRequest]{}, err
	}
	return s.List(ctx, store.Query[model.RequestStatus]{Status: f.Status, Limit: limit, Offset: offset})
}

func (s *Requests) Summary() RequestStats {
	st := s.Stats()
	return RequestStats{Stats: st, Unread: st.ByStatus[model.RequestStatusNew]}
}

func requestFilter(status, text string) (record.Filter[model.RequestStatus], error) {
	f := record.Filter[model.RequestStatus]{Text: text}
	if status == "" || status == record.AllStatuses {
		return f, nil
	}
	st, err := record.ParseStatus[model.RequestStatus](status)
	if err != nil {
		return f, err
	}
	f.Status = st
	return f, nil
}
